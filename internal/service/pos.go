package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tableside-pos/api/internal/enum"
	"github.com/tableside-pos/api/internal/geo"
	"github.com/tableside-pos/api/internal/model"
	"github.com/tableside-pos/api/internal/seed"
	"github.com/tableside-pos/api/internal/store"
)

const (
	maxJoinCodeRetries = 20
	defaultGeoTimeout  = 10 * time.Second
)

// Errors returned by the POS service.
var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrTableNotFound   = errors.New("table not found")
	ErrDishNotFound    = errors.New("dish not found")
	ErrLineNotFound    = errors.New("order line not found")
	ErrCodeNotFound    = errors.New("code not found")
	ErrInvalidCode     = errors.New("code must be 4 digits")
	ErrTableNotReset   = errors.New("table has a settled order and must be reset first")
	ErrEmptyOrder      = errors.New("order has no items")
	ErrOrderClosed     = errors.New("order is closed")
	ErrNotEditable     = errors.New("order has been sent to the kitchen and cannot be edited")
	ErrNotSubmitted    = errors.New("order has not been submitted")
	ErrVersionConflict = errors.New("order changed, please retry")
)

// state is an immutable snapshot of the four collections. Mutations build a
// new snapshot and swap it in only after it has been persisted.
type state struct {
	tables []model.Table
	orders []model.Order
	dishes []model.Dish
	config model.SystemConfig
}

func (st state) document(name string) store.Document {
	switch name {
	case enum.CollectionTables:
		return store.Document{Name: name, Value: st.tables}
	case enum.CollectionOrders:
		return store.Document{Name: name, Value: st.orders}
	case enum.CollectionDishes:
		return store.Document{Name: name, Value: st.dishes}
	default:
		return store.Document{Name: enum.CollectionConfig, Value: st.config}
	}
}

func (st state) orderIndex(id string) int {
	for i := range st.orders {
		if st.orders[i].ID == id {
			return i
		}
	}
	return -1
}

func (st state) tableIndex(id string) int {
	for i := range st.tables {
		if st.tables[i].ID == id {
			return i
		}
	}
	return -1
}

func (st state) dishIndex(id string) int {
	for i := range st.dishes {
		if st.dishes[i].ID == id {
			return i
		}
	}
	return -1
}

// withOrder returns a snapshot with o replacing the order of the same ID,
// or appended when new.
func (st state) withOrder(o model.Order) state {
	orders := make([]model.Order, len(st.orders), len(st.orders)+1)
	copy(orders, st.orders)
	if i := st.orderIndex(o.ID); i >= 0 {
		orders[i] = o
	} else {
		orders = append(orders, o)
	}
	st.orders = orders
	return st
}

func (st state) withTable(t model.Table) state {
	tables := make([]model.Table, len(st.tables), len(st.tables)+1)
	copy(tables, st.tables)
	if i := st.tableIndex(t.ID); i >= 0 {
		tables[i] = t
	} else {
		tables = append(tables, t)
	}
	st.tables = tables
	return st
}

func (st state) withDish(d model.Dish) state {
	dishes := make([]model.Dish, len(st.dishes), len(st.dishes)+1)
	copy(dishes, st.dishes)
	if i := st.dishIndex(d.ID); i >= 0 {
		dishes[i] = d
	} else {
		dishes = append(dishes, d)
	}
	st.dishes = dishes
	return st
}

// Option configures a POSService.
type Option func(*POSService)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *POSService) { s.now = now }
}

// WithLocation sets the timezone used to bucket revenue by month.
func WithLocation(loc *time.Location) Option {
	return func(s *POSService) { s.loc = loc }
}

// WithGeoTimeout bounds how long submission waits for a position.
func WithGeoTimeout(d time.Duration) Option {
	return func(s *POSService) { s.geoTimeout = d }
}

// WithCodeGenerator overrides the 4-digit join code source.
func WithCodeGenerator(gen func() string) Option {
	return func(s *POSService) { s.newCode = gen }
}

// WithIDGenerator overrides order, table and dish ID generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *POSService) { s.newID = gen }
}

// POSService is the single writer over the restaurant's persisted state.
// Reads share a lock; every mutation is serialized and persisted before it
// becomes visible.
type POSService struct {
	mu    sync.RWMutex
	store store.Store
	state state

	now        func() time.Time
	loc        *time.Location
	geoTimeout time.Duration
	newCode    func() string
	newID      func() string
}

// NewPOSService loads every collection from st, falling back to the default
// data set for collections that were never saved.
func NewPOSService(ctx context.Context, st store.Store, opts ...Option) (*POSService, error) {
	s := &POSService{
		store:      st,
		now:        time.Now,
		loc:        time.UTC,
		geoTimeout: defaultGeoTimeout,
		newCode:    randomJoinCode,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	var loaded state
	targets := []struct {
		name     string
		dst      any
		fallback func()
	}{
		{enum.CollectionTables, &loaded.tables, func() { loaded.tables = seed.Tables() }},
		{enum.CollectionOrders, &loaded.orders, func() { loaded.orders = []model.Order{} }},
		{enum.CollectionDishes, &loaded.dishes, func() { loaded.dishes = seed.Dishes() }},
		{enum.CollectionConfig, &loaded.config, func() { loaded.config = seed.Config() }},
	}
	for _, target := range targets {
		found, err := st.Load(ctx, target.name, target.dst)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", target.name, err)
		}
		if !found {
			target.fallback()
		}
	}
	s.state = loaded

	log.Printf("Loaded %d tables, %d orders, %d dishes", len(loaded.tables), len(loaded.orders), len(loaded.dishes))
	return s, nil
}

func randomJoinCode() string {
	return fmt.Sprintf("%04d", 1000+rand.IntN(9000))
}

// commit persists the named collections of next and then makes it current.
// Callers must hold the write lock.
func (s *POSService) commit(ctx context.Context, next state, names ...string) error {
	docs := make([]store.Document, len(names))
	for i, name := range names {
		docs[i] = next.document(name)
	}
	if err := s.store.Save(ctx, docs...); err != nil {
		log.Printf("ERROR: persist %v: %v", names, err)
		return fmt.Errorf("persist: %w", err)
	}
	s.state = next
	return nil
}

// openOrder returns a mutable copy of the order with id, checking the
// caller's expected version when one is given.
func (s *POSService) openOrder(id string, expectedVersion int64) (model.Order, error) {
	i := s.state.orderIndex(id)
	if i < 0 {
		return model.Order{}, ErrOrderNotFound
	}
	o := s.state.orders[i].Clone()
	if expectedVersion != 0 && expectedVersion != o.Version {
		return model.Order{}, ErrVersionConflict
	}
	return o, nil
}

// --- Reads ---

// Config returns the current system configuration.
func (s *POSService) Config() model.SystemConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.config
}

// Dishes returns every dish, available or not, in menu order.
func (s *POSService) Dishes() []model.Dish {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Dish(nil), s.state.dishes...)
}

// Menu returns the customer menu: available dishes grouped by category.
func (s *POSService) Menu() []MenuCategory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return GroupMenu(s.state.dishes)
}

// Tables returns every table.
func (s *POSService) Tables() []model.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Table(nil), s.state.tables...)
}

// Order returns one order by ID.
func (s *POSService) Order(id string) (model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.state.orderIndex(id)
	if i < 0 {
		return model.Order{}, ErrOrderNotFound
	}
	return s.state.orders[i].Clone(), nil
}

// Orders returns all orders newest first, optionally filtered by status.
func (s *POSService) Orders(status string) []model.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Order, 0, len(s.state.orders))
	for _, o := range s.state.orders {
		if status == "" || o.Status == status {
			out = append(out, o.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// ResolveTableOrder returns the order the table currently displays, or nil.
func (s *POSService) ResolveTableOrder(tableID string) (*model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.state.tableIndex(tableID)
	if i < 0 {
		return nil, ErrTableNotFound
	}
	return ResolveTableOrder(s.state.tables[i], s.state.orders), nil
}

// Table returns one table by ID.
func (s *POSService) Table(id string) (model.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.state.tableIndex(id)
	if i < 0 {
		return model.Table{}, ErrTableNotFound
	}
	return s.state.tables[i], nil
}

// Board resolves every table for the staff grid.
func (s *POSService) Board() []TableView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	views := make([]TableView, len(s.state.tables))
	for i, t := range s.state.tables {
		views[i] = BoardView(t, s.state.orders)
	}
	return views
}

// Report computes revenue and dish popularity for year.
func (s *POSService) Report(year int) Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ComputeReport(s.state.orders, year, s.now(), s.loc)
}

// CurrentYear is the calendar year in the restaurant's time zone.
func (s *POSService) CurrentYear() int {
	return s.now().In(s.loc).Year()
}

// CheckGeofence measures the caller's distance from the restaurant without
// touching any order. The distance is zero when GPS verification is off.
func (s *POSService) CheckGeofence(ctx context.Context, loc geo.Locator) (float64, error) {
	cfg := s.Config()
	if !cfg.IsGPSEnabled {
		return 0, nil
	}
	p, err := geo.Acquire(ctx, loc, s.geoTimeout)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", geo.ErrCannotVerify, err)
	}
	dist := geo.DistanceMeters(p.Lat, p.Lng, cfg.CenterCoords.Lat, cfg.CenterCoords.Lng)
	if dist > cfg.GPSRadius {
		return dist, &geo.OutOfRangeError{Distance: dist, Radius: cfg.GPSRadius}
	}
	return dist, nil
}

// --- Customer operations ---

// StartOrder returns the open order of a table or creates a new one.
// The bool result is true when a new order was created.
func (s *POSService) StartOrder(ctx context.Context, tableID string) (model.Order, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ti := s.state.tableIndex(tableID)
	if ti < 0 {
		return model.Order{}, false, ErrTableNotFound
	}
	table := s.state.tables[ti]

	if active := ResolveTableOrder(table, s.state.orders); active != nil {
		if active.Status == enum.OrderStatusPaid {
			return model.Order{}, false, ErrTableNotReset
		}
		return *active, false, nil
	}

	order := model.Order{
		ID:         s.newID(),
		TableID:    table.ID,
		TableName:  table.Name,
		RandomCode: s.uniqueJoinCode(),
		Items:      []model.OrderItem{},
		Status:     enum.OrderStatusOrdering,
		CreatedAt:  s.now(),
		Version:    1,
	}
	Recompute(&order, s.state.config)

	if err := s.commit(ctx, s.state.withOrder(order), enum.CollectionOrders); err != nil {
		return model.Order{}, false, err
	}
	log.Printf("Started order %s on table %s", order.ID, table.ID)
	return order, true, nil
}

// uniqueJoinCode draws codes until one is not held by another open order.
// Collisions with settled history are harmless because joins prefer the
// newest order; after maxJoinCodeRetries a collision is accepted.
func (s *POSService) uniqueJoinCode() string {
	inUse := make(map[string]bool)
	for _, o := range s.state.orders {
		if IsOpen(o.Status) {
			inUse[o.RandomCode] = true
		}
	}

	code := s.newCode()
	for attempt := 1; attempt < maxJoinCodeRetries && inUse[code]; attempt++ {
		code = s.newCode()
	}
	if inUse[code] {
		log.Printf("WARNING: join code %s shared by more than one open order", code)
	}
	return code
}

// JoinByCode attaches a device to the newest non-cancelled order with code.
func (s *POSService) JoinByCode(code string) (model.Order, error) {
	if len(code) != 4 {
		return model.Order{}, ErrInvalidCode
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return model.Order{}, ErrInvalidCode
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *model.Order
	for i := range s.state.orders {
		o := &s.state.orders[i]
		if o.RandomCode != code || o.Status == enum.OrderStatusCancelled {
			continue
		}
		if found == nil || o.CreatedAt.After(found.CreatedAt) {
			found = o
		}
	}
	if found == nil {
		return model.Order{}, ErrCodeNotFound
	}
	return found.Clone(), nil
}

// SelectionRequest adds or removes units of a dish on an order.
type SelectionRequest struct {
	OrderID         string
	DishID          string
	Delta           int64
	Option          string
	Note            string
	ExpectedVersion int64
}

// ApplySelection merges a menu selection into an order. Only ORDERING orders
// take edits; a submitted order comes back to ORDERING when staff accept it.
func (s *POSService) ApplySelection(ctx context.Context, req SelectionRequest) (model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, err := s.openOrder(req.OrderID, req.ExpectedVersion)
	if err != nil {
		return model.Order{}, err
	}
	switch {
	case !IsOpen(order.Status):
		return model.Order{}, ErrOrderClosed
	case order.Status != enum.OrderStatusOrdering:
		return model.Order{}, ErrNotEditable
	}

	di := s.state.dishIndex(req.DishID)
	var dish model.Dish
	switch {
	case di >= 0:
		dish = s.state.dishes[di]
	case req.Delta <= 0:
		// A deleted dish can still be removed from an order.
		dish = model.Dish{ID: req.DishID}
	default:
		return model.Order{}, ErrDishNotFound
	}

	if err := ApplySelection(&order, dish, req.Delta, req.Option, req.Note, s.state.config); err != nil {
		return model.Order{}, err
	}
	order.Version++

	if err := s.commit(ctx, s.state.withOrder(order), enum.CollectionOrders); err != nil {
		return model.Order{}, err
	}
	return order, nil
}

// Submit sends an order to the kitchen once the diner passes the geofence.
func (s *POSService) Submit(ctx context.Context, orderID string, loc geo.Locator, expectedVersion int64) (model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, err := s.openOrder(orderID, expectedVersion)
	if err != nil {
		return model.Order{}, err
	}
	if err := validateTransition(order, TransitionSubmit); err != nil {
		return model.Order{}, err
	}
	if len(order.Items) == 0 {
		return model.Order{}, ErrEmptyOrder
	}
	if err := geo.Check(ctx, s.state.config, loc, s.geoTimeout); err != nil {
		return model.Order{}, err
	}

	return s.transition(ctx, order, TransitionSubmit)
}

// --- Staff operations ---

// AcceptForPreparation takes a submitted order back into preparation.
func (s *POSService) AcceptForPreparation(ctx context.Context, orderID string) (model.Order, error) {
	return s.staffTransition(ctx, orderID, TransitionAccept)
}

// CheckIn marks the party as seated and served at the table.
func (s *POSService) CheckIn(ctx context.Context, orderID string) (model.Order, error) {
	return s.staffTransition(ctx, orderID, TransitionCheckIn)
}

// Settle records payment. Settling a paid order changes nothing.
func (s *POSService) Settle(ctx context.Context, orderID string) (model.Order, error) {
	return s.staffTransition(ctx, orderID, TransitionSettle)
}

// Cancel abandons an order that has not been paid.
func (s *POSService) Cancel(ctx context.Context, orderID string) (model.Order, error) {
	return s.staffTransition(ctx, orderID, TransitionCancel)
}

func (s *POSService) staffTransition(ctx context.Context, orderID string, t Transition) (model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, err := s.openOrder(orderID, 0)
	if err != nil {
		return model.Order{}, err
	}
	return s.transition(ctx, order, t)
}

// transition applies t and its table side effect, persisting both together.
// Callers must hold the write lock.
func (s *POSService) transition(ctx context.Context, order model.Order, t Transition) (model.Order, error) {
	changed, err := applyTransition(&order, t, s.now())
	if err != nil {
		return model.Order{}, err
	}
	if !changed {
		return order, nil
	}
	order.Version++

	next := s.state.withOrder(order)
	names := []string{enum.CollectionOrders}

	if status, ok := tableEffects[t]; ok {
		if ti := next.tableIndex(order.TableID); ti >= 0 && next.tables[ti].Status != status {
			table := next.tables[ti]
			table.Status = status
			next = next.withTable(table)
			names = append(names, enum.CollectionTables)
		}
	}

	if err := s.commit(ctx, next, names...); err != nil {
		return model.Order{}, err
	}
	log.Printf("Order %s: %s -> %s", order.ID, t, order.Status)
	return order, nil
}

// ResetTable marks a table idle after the party leaves. Orders are untouched.
func (s *POSService) ResetTable(ctx context.Context, tableID string) (model.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ti := s.state.tableIndex(tableID)
	if ti < 0 {
		return model.Table{}, ErrTableNotFound
	}
	table := s.state.tables[ti]
	if table.Status == enum.TableStatusIdle {
		return table, nil
	}
	table.Status = enum.TableStatusIdle

	if err := s.commit(ctx, s.state.withTable(table), enum.CollectionTables); err != nil {
		return model.Table{}, err
	}
	return table, nil
}

// ToggleServed flips the served flag on one line of a submitted order.
func (s *POSService) ToggleServed(ctx context.Context, orderID string, key model.LineKey) (model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, err := s.openOrder(orderID, 0)
	if err != nil {
		return model.Order{}, err
	}
	if order.SubmittedAt == nil {
		return model.Order{}, ErrNotSubmitted
	}

	key.Option = strings.TrimSpace(key.Option)
	key.Note = strings.TrimSpace(key.Note)
	idx := -1
	for i, item := range order.Items {
		if item.Key() == key {
			idx = i
			break
		}
	}
	if idx < 0 {
		return model.Order{}, ErrLineNotFound
	}
	order.Items[idx].IsServed = !order.Items[idx].IsServed
	order.Version++

	if err := s.commit(ctx, s.state.withOrder(order), enum.CollectionOrders); err != nil {
		return model.Order{}, err
	}
	return order, nil
}

// SaveDish creates (empty ID) or replaces an existing dish. Existing order
// lines keep their captured name and price.
func (s *POSService) SaveDish(ctx context.Context, dish model.Dish) (model.Dish, error) {
	dish, err := normalizeDish(dish)
	if err != nil {
		return model.Dish{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case dish.ID == "":
		dish.ID = s.newID()
	case s.state.dishIndex(dish.ID) < 0:
		return model.Dish{}, ErrDishNotFound
	}
	if err := s.commit(ctx, s.state.withDish(dish), enum.CollectionDishes); err != nil {
		return model.Dish{}, err
	}
	return dish, nil
}

// DeleteDish removes a dish from the menu. Orders are not affected.
func (s *POSService) DeleteDish(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.state.dishIndex(id)
	if i < 0 {
		return ErrDishNotFound
	}
	next := s.state
	next.dishes = append(append([]model.Dish{}, s.state.dishes[:i]...), s.state.dishes[i+1:]...)
	return s.commit(ctx, next, enum.CollectionDishes)
}

// SaveTable creates (empty ID) or replaces an existing table. An empty
// status keeps the table's current status.
func (s *POSService) SaveTable(ctx context.Context, table model.Table) (model.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if table.ID != "" {
		i := s.state.tableIndex(table.ID)
		if i < 0 {
			return model.Table{}, ErrTableNotFound
		}
		if table.Status == "" {
			table.Status = s.state.tables[i].Status
		}
	}
	table, err := normalizeTable(table)
	if err != nil {
		return model.Table{}, err
	}
	if table.ID == "" {
		table.ID = s.newID()
	}
	if err := s.commit(ctx, s.state.withTable(table), enum.CollectionTables); err != nil {
		return model.Table{}, err
	}
	return table, nil
}

// DeleteTable removes a table. Its orders remain as history.
func (s *POSService) DeleteTable(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.state.tableIndex(id)
	if i < 0 {
		return ErrTableNotFound
	}
	next := s.state
	next.tables = append(append([]model.Table{}, s.state.tables[:i]...), s.state.tables[i+1:]...)
	return s.commit(ctx, next, enum.CollectionTables)
}

// UpdateConfig replaces the system configuration. Stored order totals are
// not recomputed; open orders pick up a new fee rate on their next change.
func (s *POSService) UpdateConfig(ctx context.Context, cfg model.SystemConfig) (model.SystemConfig, error) {
	if err := validateConfig(cfg); err != nil {
		return model.SystemConfig{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state
	next.config = cfg
	if err := s.commit(ctx, next, enum.CollectionConfig); err != nil {
		return model.SystemConfig{}, err
	}
	return cfg, nil
}
