// Package notify публикует уведомления о сработавших событиях в RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением (reconnect, graceful shutdown)
//   - publisher.go  — exchange chrono.events и публикация event.fired
//
// Публикация опциональна: без настроенного AMQP_URL daemon работает
// без уведомлений, ошибка публикации не откатывает срабатывание.
package notify
