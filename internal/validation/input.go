package validation

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

// Константы валидации
const (
	MinMessageLength   = 1
	MaxMessageLength   = 5000
	MaxLinkLength      = 500
	ScheduleDateLayout = "2006-01-02"
	ScheduleTimeLayout = "15:04"
)

// ValidateLength проверяет длину строки в рунах.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateScheduleDate проверяет дату заказа в формате YYYY-MM-DD.
func ValidateScheduleDate(value string) error {
	if value == "" {
		return fmt.Errorf("дата заказа обязательна")
	}
	if _, err := time.Parse(ScheduleDateLayout, value); err != nil {
		return fmt.Errorf("дата заказа должна быть в формате ГГГГ-ММ-ДД")
	}
	return nil
}

// ValidateScheduleTime проверяет время заказа в формате HH:MM.
func ValidateScheduleTime(value string) error {
	if value == "" {
		return fmt.Errorf("время заказа обязательно")
	}
	if _, err := time.Parse(ScheduleTimeLayout, value); err != nil {
		return fmt.Errorf("время заказа должно быть в формате ЧЧ:ММ")
	}
	return nil
}

// ValidateMessageContent проверяет текст сообщения.
func ValidateMessageContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("сообщение не может быть пустым")
	}
	return ValidateLength("текст сообщения", content, MinMessageLength, MaxMessageLength)
}

// ValidateLink проверяет опциональную ссылку (картинка, голосовое, локация).
func ValidateLink(link string) error {
	if err := ValidateLength("ссылка", link, 1, MaxLinkLength); err != nil {
		return err
	}
	parsed, err := url.Parse(link)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("ссылка должна быть абсолютным URL")
	}
	return nil
}
