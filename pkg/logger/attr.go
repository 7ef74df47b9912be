package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID records the user identifier under the key "user_id".
func UserID(id string) slog.Attr {
	return slog.String("user_id", id)
}

// AppType records the application surface under the key "app_type".
func AppType(app string) slog.Attr {
	return slog.String("app_type", app)
}

// Room records a room name under the key "room".
func Room(room string) slog.Attr {
	return slog.String("room", room)
}

// Event records an event name under the key "event".
func Event(name string) slog.Attr {
	return slog.String("event", name)
}

// NotificationID records the durable record identifier.
func NotificationID(id string) slog.Attr {
	return slog.String("notification_id", id)
}

// ConnectionID records the gateway connection identifier.
func ConnectionID(id string) slog.Attr {
	return slog.String("connection_id", id)
}
