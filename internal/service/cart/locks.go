package cart

import "sync"

// LockRegistry выдаёт мьютекс на корзину по её идентификатору.
// Мутации одной корзины выполняются строго последовательно, мутации
// разных корзин друг друга не блокируют. Записи считаются по ссылкам
// и удаляются, когда последний держатель отпускает замок.
type LockRegistry struct {
	mu    sync.Mutex
	locks map[string]*cartLock
}

type cartLock struct {
	mu   sync.Mutex
	refs int
}

// NewLockRegistry создаёт пустой реестр замков.
func NewLockRegistry() *LockRegistry {
	return &LockRegistry{locks: make(map[string]*cartLock)}
}

// Lock захватывает замок корзины и возвращает функцию освобождения.
func (r *LockRegistry) Lock(cartID string) func() {
	r.mu.Lock()
	entry, ok := r.locks[cartID]
	if !ok {
		entry = &cartLock{}
		r.locks[cartID] = entry
	}
	entry.refs++
	r.mu.Unlock()

	entry.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			entry.mu.Unlock()

			r.mu.Lock()
			entry.refs--
			if entry.refs == 0 {
				delete(r.locks, cartID)
			}
			r.mu.Unlock()
		})
	}
}
