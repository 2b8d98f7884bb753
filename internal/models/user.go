// Package models содержит доменные модели приложения: пользователя,
// тарифы членства и событие об успешной оплате.
package models

import "time"

// User представляет зарегистрированного пользователя (ученика) платформы.
type User struct {
	ID           int64     // Уникальный идентификатор пользователя
	Username     string    // Имя пользователя, при регистрации совпадает с email
	Email        string    // Электронная почта
	PasswordHash string    // bcrypt-хэш пароля
	Name         string    // Отображаемое имя из профиля
	Phone        string    // Телефон из профиля
	Paid         bool      // Признак оплаченного доступа к курсу
	Plan         *Plan     // Оплаченный тариф, nil до оплаты
	Progress     []string  // Пройденные уроки
	CreatedAt    time.Time // Дата регистрации
}
