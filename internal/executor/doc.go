// Package executor реализует границу запуска выполнений.
//
// Daemon не выполняет функции сам: Submit сериализует снимок
// аргументов во временные JSON-файлы и запускает независимый
// процесс-runner в режиме fire-and-forget. Завершение выполнения
// не отслеживается и не ожидается; дедупликации запусков нет.
//
// Временные payload-файлы удаляются на всех путях: немедленно при
// ошибке запуска, иначе — runner'ом по завершении выполнения.
package executor
