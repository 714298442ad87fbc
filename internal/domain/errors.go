package domain

import "errors"

var (
	// ErrStoreUnavailable — кэш недоступен; конвейер считает это промахом.
	ErrStoreUnavailable = errors.New("cache store unavailable")
	// ErrHistoryLoadFailed — не удалось загрузить историю просмотров.
	ErrHistoryLoadFailed = errors.New("history load failed")
	// ErrSubscriptionLoadFailed — не удалось загрузить подписки на платформы.
	ErrSubscriptionLoadFailed = errors.New("subscription load failed")
	// ErrModelCallFailed — модель недоступна, ограничила запрос или вернула ошибку.
	ErrModelCallFailed = errors.New("model call failed")
	// ErrEmptyQuery — пустой текст запроса.
	ErrEmptyQuery = errors.New("query text is required")
	// ErrEmptyUser — не указан пользователь.
	ErrEmptyUser = errors.New("user id is required")
)
