package server

import (
	"crypto/rand"
	"math/big"
	"sort"
	"sync"
)

// RoomInfo 大厅房间列表项
type RoomInfo struct {
	Code    string `json:"code"`
	Players int    `json:"players"`
	Ready   int    `json:"ready"`
}

// RoomManager 管理多个房间的生命周期
type RoomManager struct {
	mu          sync.RWMutex
	rooms       map[string]*Room
	opts        RoomOptions
	defaultRoom string
}

var (
	defaultManager *RoomManager
	once           sync.Once
	defaultOpts    = DefaultRoomOptions()
)

// Configure 设置单例管理器的房间参数，须在首次 GetRoomManager 之前调用
func Configure(opts RoomOptions) {
	defaultOpts = opts
}

// GetRoomManager 单例房间管理器
func GetRoomManager() *RoomManager {
	once.Do(func() {
		defaultManager = NewRoomManager(defaultOpts)
	})
	return defaultManager
}

// NewRoomManager 创建独立的管理器（测试或多实例使用）
func NewRoomManager(opts RoomOptions) *RoomManager {
	return &RoomManager{rooms: make(map[string]*Room), opts: opts, defaultRoom: "room-1"}
}

// SetDefaultRoom 未指定房间时使用的房间 ID
func (m *RoomManager) SetDefaultRoom(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultRoom = id
}

// GetOrCreateRoom 获取或创建房间，并确保开始 Tick
func (m *RoomManager) GetOrCreateRoom(id string) *Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	if !ok {
		r = m.startRoom(id)
	}
	return r
}

// Room 查找已存在的房间
func (m *RoomManager) Room(id string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	return r, ok
}

const codeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CreateRoom 生成唯一的 6 位房间码并创建房间
func (m *RoomManager) CreateRoom() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for {
		code := generateCode(6)
		if _, exists := m.rooms[code]; exists {
			continue
		}
		m.startRoom(code)
		return code
	}
}

// RemoveRoom 停止并移除房间
func (m *RoomManager) RemoveRoom(id string) {
	m.mu.Lock()
	r, ok := m.rooms[id]
	delete(m.rooms, id)
	m.mu.Unlock()
	if ok {
		r.Stop()
		Log.Infow("room removed", "room", id)
	}
}

// ListRooms 返回全部房间及其人数，按房间码排序
func (m *RoomManager) ListRooms() []RoomInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RoomInfo, 0, len(m.rooms))
	for code, r := range m.rooms {
		out = append(out, RoomInfo{Code: code, Players: r.NumPlayers(), Ready: r.NumReady()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// StopAll 停止全部房间（优雅退出）
func (m *RoomManager) StopAll() {
	m.mu.Lock()
	rooms := m.rooms
	m.rooms = make(map[string]*Room)
	m.mu.Unlock()
	for _, r := range rooms {
		r.Stop()
	}
}

// startRoom 调用方须持有 m.mu
func (m *RoomManager) startRoom(id string) *Room {
	r := NewRoom(id, m.opts)
	m.rooms[id] = r
	r.StartTicker()
	Log.Infow("room created", "room", id, "rails", len(r.Rails()))
	return r
}

func generateCode(n int) string {
	b := make([]byte, n)
	max := big.NewInt(int64(len(codeChars)))
	for i := range b {
		idx, _ := rand.Int(rand.Reader, max)
		b[i] = codeChars[idx.Int64()]
	}
	return string(b)
}
