// Package telegram provides a minimal Telegram Bot API client used to deliver
// digest notifications to chats.
package telegram
