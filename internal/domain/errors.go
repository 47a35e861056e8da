package domain

import "errors"

var (
	// ErrUserNotFound возвращается, когда пользователь не найден.
	ErrUserNotFound = errors.New("user not found")

	// ErrCacheMiss возвращается кэшем при отсутствии ключа.
	ErrCacheMiss = errors.New("cache miss")

	// ErrSettingsNotFound возвращается при обновлении несуществующей записи настроек.
	ErrSettingsNotFound = errors.New("site settings not found")
)
