package domain

import "strings"

// AppRole описывает роль пользователя админ-панели.
type AppRole string

const (
	AppRoleAdmin AppRole = "admin"
	AppRoleUser  AppRole = "user"
)

// ParseAppRole приводит строку из БД к роли. Неизвестные значения считаются обычным пользователем.
func ParseAppRole(value string) AppRole {
	switch AppRole(strings.ToLower(strings.TrimSpace(value))) {
	case AppRoleAdmin:
		return AppRoleAdmin
	default:
		return AppRoleUser
	}
}

// HasAdmin сообщает, есть ли среди ролей администратор.
func HasAdmin(roles []AppRole) bool {
	for _, role := range roles {
		if role == AppRoleAdmin {
			return true
		}
	}
	return false
}
