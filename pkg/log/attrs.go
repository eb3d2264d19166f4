package log

import (
	"log/slog"
	"time"
)

func TaskID[T ~string](id T) slog.Attr {
	return slog.String("task_id", string(id))
}

func AlarmName(name string) slog.Attr {
	return slog.String("alarm", name)
}

func Due(t time.Time) slog.Attr {
	return slog.Time("due", t)
}

func Status[T ~string](status T) slog.Attr {
	return slog.String("status", string(status))
}

func EventType[T ~string](et T) slog.Attr {
	return slog.String("event_type", string(et))
}

func Count(n int) slog.Attr {
	return slog.Int("count", n)
}

func Error(err error) slog.Attr {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return slog.String("error", msg)
}

func ErrorString(msg string) slog.Attr {
	return slog.String("error", msg)
}
