// Package memory implementa los puertos del ledger en memoria (STORAGE_DRIVER=memory, pruebas).
// Un único escritor a la vez: TxRunner.Run toma el lock de escritura durante todo el callback
// y trabaja sobre una copia; solo si el callback termina sin error la copia reemplaza al estado.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/granja-api/internal/application/inventory"
	"github.com/jhoicas/granja-api/internal/domain/entity"
	"github.com/jhoicas/granja-api/internal/domain/repository"
)

var _ inventory.TxRunner = (*Store)(nil)

type state struct {
	items     map[string]entity.InventoryItem
	movements []entity.Movement
}

func (s *state) clone() *state {
	items := make(map[string]entity.InventoryItem, len(s.items))
	for k, v := range s.items {
		items[k] = v
	}
	movs := make([]entity.Movement, len(s.movements))
	copy(movs, s.movements)
	return &state{items: items, movements: movs}
}

// Store estado compartido del ledger y de los datos de colaboradores.
type Store struct {
	writer sync.Mutex   // serializa transacciones y escrituras sueltas
	mu     sync.RWMutex // protege el puntero a state y los datos de colaboradores
	st     *state

	products   map[string]entity.Product
	groups     map[string]entity.GroupOrigin
	production []entity.ProductionRecord
	mortality  []entity.MortalityRecord
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{
		st:       &state{items: make(map[string]entity.InventoryItem)},
		products: make(map[string]entity.Product),
		groups:   make(map[string]entity.GroupOrigin),
	}
}

// Run ejecuta fn con repos atados a una copia del estado. Commit = reemplazo atómico de la copia.
func (s *Store) Run(ctx context.Context, fn func(
	items repository.InventoryItemRepository,
	movements repository.MovementRepository,
) error) error {
	s.writer.Lock()
	defer s.writer.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	staged := s.st.clone()
	s.mu.RUnlock()

	if err := fn(&ItemRepo{store: s, tx: staged}, &MovementRepo{store: s, tx: staged}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.st = staged
	s.mu.Unlock()
	return nil
}

// Items repositorio de lotes fuera de transacción.
func (s *Store) Items() *ItemRepo { return &ItemRepo{store: s} }

// Movements repositorio de movimientos fuera de transacción.
func (s *Store) Movements() *MovementRepo { return &MovementRepo{store: s} }

// view ejecuta fn sobre tx si existe, o sobre el estado confirmado con lock de lectura.
func (s *Store) view(tx *state, fn func(st *state) error) error {
	if tx != nil {
		return fn(tx)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.st)
}

// update escribe en tx si existe; si no, aplica fn directamente como una transacción de una operación.
func (s *Store) update(tx *state, fn func(st *state) error) error {
	if tx != nil {
		return fn(tx)
	}
	s.writer.Lock()
	defer s.writer.Unlock()

	s.mu.RLock()
	staged := s.st.clone()
	s.mu.RUnlock()
	if err := fn(staged); err != nil {
		return err
	}
	s.mu.Lock()
	s.st = staged
	s.mu.Unlock()
	return nil
}
