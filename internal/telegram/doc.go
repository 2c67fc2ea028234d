// Package telegram adapts the Telegram Bot API to the chat.Transport and
// chat.Poller interfaces.
//
// Outbound calls map one-to-one onto Bot API methods. Inbound updates are
// long-polled with getUpdates; a polling failure ends Poll with an error so
// the daemon supervisor can restart the loop after its backoff.
package telegram
