// Package repo хранит объявленные очереди в PostgreSQL.
//
// Таблица task_queues дополняет очереди из файла конфигурации:
// при старте они загружаются в queues.Registry (LoadInto), а очереди,
// созданные маршрутизатором на лету, сохраняет в фоне Persister.
package repo
