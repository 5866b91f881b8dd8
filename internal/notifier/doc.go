// Package notifier delivers push notifications to a list of recipient tokens.
//
// Senders report delivery per token so callers can correlate failures with the
// tokens they sent to. Firebase Cloud Messaging is the production sender;
// Telegram (tokens are chat ids) and a dry-run printer are also available.
package notifier
