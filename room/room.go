// room/room.go
package room

import (
	"crypto/rand"
	"errors"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wfunc/dhumbal/game"
	"github.com/wfunc/dhumbal/timer"
)

var ErrRoomNotFound = errors.New("Room not found")

// CodeLength is the length of generated room codes.
const CodeLength = 5

const codeLetters = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Room 是游戏房间, holding the latest snapshot of its game.
type Room struct {
	Code      string
	CreatedAt time.Time

	mutex   sync.Mutex
	current *game.Room
	closed  bool
	publish func(*game.Room)
	reaper  int64
}

// Snapshot returns the current game state. Snapshots are never modified.
func (r *Room) Snapshot() *game.Room {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.current
}

// Apply runs one command against the current snapshot while holding the
// room's lock. The snapshot is replaced only when fn succeeds, and every new
// snapshot is published before the lock is released, so members see
// versions in commit order.
func (r *Room) Apply(fn func(*game.Room) (*game.Room, error)) (*game.Room, error) {
	return r.ApplyThen(fn, nil)
}

// ApplyThen is Apply with a follow-up that runs under the same lock after the
// new snapshot is published. then is skipped when fn fails.
func (r *Room) ApplyThen(fn func(*game.Room) (*game.Room, error), then func(*game.Room)) (*game.Room, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.closed {
		return nil, ErrRoomNotFound
	}
	next, err := fn(r.current)
	if err != nil {
		return nil, err
	}
	if next != nil && next != r.current {
		r.current = next
		if r.publish != nil {
			r.publish(next)
		}
	}
	if then != nil {
		then(r.current)
	}
	return r.current, nil
}

// close marks the room dead. With onlyIfEmpty it refuses while anyone is seated.
func (r *Room) close(onlyIfEmpty bool) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if onlyIfEmpty && len(r.current.Players) > 0 {
		return false
	}
	r.closed = true
	return true
}

// Summary 房间概要
type Summary struct {
	Code      string
	Phase     game.Phase
	Players   []string
	Version   uint64
	CreatedAt time.Time
}

func (r *Room) summary() Summary {
	snap := r.Snapshot()
	s := Summary{
		Code:      r.Code,
		Phase:     snap.Phase(),
		Version:   snap.Version,
		CreatedAt: r.CreatedAt,
	}
	for _, p := range snap.Players {
		s.Players = append(s.Players, p.Name)
	}
	return s
}

// --- 房间管理器 ---

// Manager 管理所有房间
type Manager struct {
	rooms   map[string]*Room
	mutex   sync.RWMutex
	timers  *timer.TimerManager
	opts    []game.Option
	newCode func() string
	publish func(*game.Room)
}

// NewRoomManager 创建一个新的房间管理器. opts are passed to every new game.
func NewRoomManager(timers *timer.TimerManager, opts ...game.Option) *Manager {
	return &Manager{
		rooms:   make(map[string]*Room),
		timers:  timers,
		opts:    opts,
		newCode: randomCode,
	}
}

// OnCommit sets the hook every room calls, under its lock, with each new
// snapshot. It must not call back into the room or the manager.
func (m *Manager) OnCommit(fn func(*game.Room)) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.publish = fn
}

// CreateRoom 创建一个新房间并添加到管理器
func (m *Manager) CreateRoom(handSize, maxPlayers int) (*Room, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	code := m.newCode()
	for m.rooms[code] != nil {
		code = m.newCode()
	}

	opts := append([]game.Option{game.WithMaxPlayers(maxPlayers)}, m.opts...)
	snap, err := game.NewRoom(code, handSize, opts...)
	if err != nil {
		return nil, err
	}

	room := &Room{Code: code, CreatedAt: time.Now(), current: snap, publish: m.publish}
	m.rooms[code] = room
	return room, nil
}

// GetRoom looks a room up by code, ignoring case.
func (m *Manager) GetRoom(code string) (*Room, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	room, exists := m.rooms[strings.ToUpper(strings.TrimSpace(code))]
	if !exists {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// RemoveRoom 从管理器中移除一个房间
func (m *Manager) RemoveRoom(code string) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	room, exists := m.rooms[code]
	if !exists {
		return false
	}
	room.close(false)
	m.drop(room)
	return true
}

// drop deletes a room and cancels its reaper. Callers hold m.mutex.
func (m *Manager) drop(room *Room) {
	if room.reaper != 0 && m.timers != nil {
		m.timers.RemoveTimer(room.reaper)
	}
	delete(m.rooms, room.Code)
}

// removeIfEmpty deletes room unless someone joined it in the meantime.
func (m *Manager) removeIfEmpty(room *Room) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.rooms[room.Code] != room {
		return true
	}
	if !room.close(true) {
		return false
	}
	m.drop(room)
	return true
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms)
}

// List returns a summary of every room, oldest first.
func (m *Manager) List() []Summary {
	m.mutex.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mutex.RUnlock()

	out := make([]Summary, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.summary())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Code < out[j].Code
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Leave removes ref from one room. The room is deleted once nobody is left;
// the returned bool reports whether it still exists.
func (m *Manager) Leave(code, ref string) (*game.Room, bool, error) {
	room, err := m.GetRoom(code)
	if err != nil {
		return nil, false, err
	}

	snap, err := room.Apply(func(r *game.Room) (*game.Room, error) {
		next, _ := r.RemovePlayer(ref)
		return next, nil
	})
	if err != nil {
		return nil, false, err
	}
	if len(snap.Players) == 0 && m.removeIfEmpty(room) {
		return snap, false, nil
	}
	return snap, true, nil
}

// RemoveSession takes ref out of every room it sits in. Rooms left empty are
// deleted; the ones still open are returned.
func (m *Manager) RemoveSession(ref string) []*Room {
	m.mutex.RLock()
	var seated []*Room
	for _, r := range m.rooms {
		if _, ok := r.Snapshot().PlayerByRef(ref); ok {
			seated = append(seated, r)
		}
	}
	m.mutex.RUnlock()

	var changed []*Room
	for _, r := range seated {
		if _, alive, err := m.Leave(r.Code, ref); err == nil && alive {
			changed = append(changed, r)
		}
	}
	return changed
}

// ScheduleRemoval deletes the room after the given delay.
func (m *Manager) ScheduleRemoval(code string, after time.Duration) error {
	if m.timers == nil {
		return nil
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	room, exists := m.rooms[code]
	if !exists {
		return ErrRoomNotFound
	}
	if room.reaper != 0 {
		m.timers.RemoveTimer(room.reaper)
	}
	room.reaper = m.timers.AddTimer(after, 0, func() {
		m.RemoveRoom(code)
	})
	return nil
}

// Close drops every room.
func (m *Manager) Close() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, room := range m.rooms {
		room.close(false)
		m.drop(room)
	}
}

func randomCode() string {
	max := big.NewInt(int64(len(codeLetters)))
	b := make([]byte, CodeLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			b[i] = codeLetters[0]
			continue
		}
		b[i] = codeLetters[n.Int64()]
	}
	return string(b)
}
