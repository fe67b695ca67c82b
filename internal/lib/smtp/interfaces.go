// Package smtp отправляет письма через SMTP с обязательным STARTTLS.
package smtp

import "io"

// Client описывает SMTP-сессию, достаточную для отправки одного письма.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// TransportInterface устанавливает SMTP-соединения и знает адрес отправителя.
type TransportInterface interface {
	Connect() (Client, error)
	GetSMTPUser() string
}
