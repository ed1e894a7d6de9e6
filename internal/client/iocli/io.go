// Package iocli ввод и вывод интерактивных команд клиента.
package iocli

//go:generate moq -out io_mock.go . IO

// IO терминал команды: вывод, ввод строки и скрытый ввод секретов
type IO interface {
	Println(a ...any)
	Printf(format string, a ...any)
	ReadInput(prompt string) (string, error)
	// ReadPassword читает строку без эха (токен доступа)
	ReadPassword(prompt string) (string, error)
	Write(p []byte) (n int, err error)
}
