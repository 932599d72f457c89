package models

// OrderStatus константы статусов заказов
const (
	OrderStatusPending    = "PENDING"
	OrderStatusAccepted   = "ACCEPTED"
	OrderStatusInProgress = "IN_PROGRESS"
	OrderStatusCompleted  = "COMPLETED"
	OrderStatusCancelled  = "CANCELLED"
)

// MessageType константы типов сообщений в чате
const (
	MessageTypeText     = "TEXT"
	MessageTypeImage    = "IMAGE"
	MessageTypeVoice    = "VOICE"
	MessageTypeLocation = "LOCATION"
)

// UserRole константы ролей пользователей
const (
	UserRoleClient   = "CLIENT"
	UserRoleProvider = "PROVIDER"
)

// ValidOrderStatuses список валидных статусов заказов
var ValidOrderStatuses = map[string]struct{}{
	OrderStatusPending:    {},
	OrderStatusAccepted:   {},
	OrderStatusInProgress: {},
	OrderStatusCompleted:  {},
	OrderStatusCancelled:  {},
}

// ValidMessageTypes список валидных типов сообщений
var ValidMessageTypes = map[string]struct{}{
	MessageTypeText:     {},
	MessageTypeImage:    {},
	MessageTypeVoice:    {},
	MessageTypeLocation: {},
}

// ValidUserRoles список валидных ролей
var ValidUserRoles = map[string]struct{}{
	UserRoleClient:   {},
	UserRoleProvider: {},
}
