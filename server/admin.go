package server

import (
	"encoding/json"
	"net/http"

	"github.com/samber/oops"
)

func (m *RoomManager) roomID(r *http.Request) string {
	if id := r.URL.Query().Get("room"); id != "" {
		return id
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultRoom
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// HandleAdminConfig 提供房间滑轨参数的读取与热更新
// GET /admin/config?room=room-1  返回当前参数
// POST /admin/config?room=room-1 以 JSON 载荷更新部分字段（未出现的字段保持不变）
func (m *RoomManager) HandleAdminConfig(w http.ResponseWriter, r *http.Request) {
	roomID := m.roomID(r)
	room, ok := m.Room(roomID)
	if !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, room.Tuning())
	case http.MethodPost:
		next := room.Tuning()
		if err := json.NewDecoder(r.Body).Decode(&next); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := room.UpdateTuning(next); err != nil {
			resp := map[string]any{"ok": false, "error": err.Error()}
			if oopsErr, ok := oops.AsOops(err); ok {
				resp["code"] = oopsErr.Code()
				resp["context"] = oopsErr.Context()
			}
			writeJSON(w, http.StatusUnprocessableEntity, resp)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		Log.Infow("config update requested", "room", roomID)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleMetrics 输出指定房间的运行指标
// GET /metrics?room=room-1
func (m *RoomManager) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	roomID := m.roomID(r)
	room, ok := m.Room(roomID)
	if !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"room":    roomID,
		"players": room.NumPlayers(),
		"metrics": room.Metrics().Snapshot(),
	})
}

// HandleRooms 大厅：GET 列出房间，POST 创建带房间码的新房间
func (m *RoomManager) HandleRooms(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, m.ListRooms())
	case http.MethodPost:
		writeJSON(w, http.StatusCreated, map[string]string{"code": m.CreateRoom()})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
