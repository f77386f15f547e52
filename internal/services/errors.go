// Package services defines the business logic of the gateway: credentials,
// settings, traffic logs, chat reconciliation and outgoing messages.
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import "errors"

// Credential errors.
var (
	// ErrBotTokenNotFound indicates that the referenced bot token does not exist.
	ErrBotTokenNotFound = errors.New("bot token not found")

	// ErrNameRequired is returned when a bot token is created without a name.
	ErrNameRequired = errors.New("name is required")

	// ErrTokenRequired is returned when a bot token is created without a token.
	ErrTokenRequired = errors.New("token is required")

	// ErrNameTaken is returned when another bot token already uses the name.
	ErrNameTaken = errors.New("bot token name already exists")
)

// Setting errors.
var (
	ErrSettingNotFound = errors.New("setting not found")
	ErrKeyRequired     = errors.New("key is required")
	ErrSettingExists   = errors.New("setting key already exists")
)

// Messaging errors.
var (
	ErrChatIDRequired  = errors.New("chat_id is required")
	ErrMessageRequired = errors.New("message is required")

	// ErrSendFailed wraps a delivery failure reported by the platform.
	ErrSendFailed = errors.New("failed to send message")
)
