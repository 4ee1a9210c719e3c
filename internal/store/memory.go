package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/skyloft/kitedrift/internal/kitedrift"
)

// Memory is an in-process Store used by the engine tests and as a fallback
// when no database is configured. All methods are safe for concurrent use.
type Memory struct {
	mu sync.Mutex

	users   map[int64]kitedrift.User
	rooms   map[int64]kitedrift.Room
	kites   map[int64]kitedrift.Kite
	events  map[int64]kitedrift.GameEvent
	members map[int64]kitedrift.RoomMembership
	skins   map[int64]kitedrift.KiteSkin

	nextID int64
}

func NewMemory() *Memory {
	return &Memory{
		users:   make(map[int64]kitedrift.User),
		rooms:   make(map[int64]kitedrift.Room),
		kites:   make(map[int64]kitedrift.Kite),
		events:  make(map[int64]kitedrift.GameEvent),
		members: make(map[int64]kitedrift.RoomMembership),
		skins:   make(map[int64]kitedrift.KiteSkin),
	}
}

func (s *Memory) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Memory) CreateUser(_ context.Context, username, passwordHash string) (kitedrift.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return kitedrift.User{}, fmt.Errorf("username %q already exists", username)
		}
	}
	u := kitedrift.User{ID: s.id(), Username: username, PasswordHash: passwordHash}
	s.users[u.ID] = u
	return u, nil
}

func (s *Memory) GetUser(_ context.Context, id int64) (kitedrift.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return kitedrift.User{}, ErrNotFound
	}
	return u, nil
}

func (s *Memory) GetUserByUsername(_ context.Context, username string) (kitedrift.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return kitedrift.User{}, ErrNotFound
}

func (s *Memory) CreateRoom(_ context.Context, name string, creatorID int64, maxPlayers, targetCoins int) (kitedrift.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := kitedrift.Room{
		ID:          s.id(),
		Name:        name,
		CreatorID:   creatorID,
		MaxPlayers:  maxPlayers,
		TargetCoins: targetCoins,
		Status:      kitedrift.RoomWaiting,
		CreatedAt:   time.Now().UTC(),
	}
	s.rooms[r.ID] = r
	return r, nil
}

func (s *Memory) GetRoom(_ context.Context, id int64) (kitedrift.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return kitedrift.Room{}, ErrNotFound
	}
	return r, nil
}

func (s *Memory) ListRooms(_ context.Context) ([]kitedrift.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rooms := make([]kitedrift.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, r)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })
	return rooms, nil
}

func (s *Memory) UpdateRoomStatus(_ context.Context, id int64, status kitedrift.RoomStatus) (kitedrift.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return kitedrift.Room{}, ErrNotFound
	}
	r.Status = status
	s.rooms[id] = r
	return r, nil
}

func (s *Memory) CreateKite(_ context.Context, k kitedrift.Kite) (kitedrift.Kite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k.ID = s.id()
	k.Coins = 0
	k.IsActive = true
	s.kites[k.ID] = k
	return k, nil
}

func (s *Memory) GetKite(_ context.Context, id int64) (kitedrift.Kite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.kites[id]
	if !ok {
		return kitedrift.Kite{}, ErrNotFound
	}
	return k, nil
}

func (s *Memory) kitesWhere(keep func(kitedrift.Kite) bool) []kitedrift.Kite {
	var kites []kitedrift.Kite
	for _, k := range s.kites {
		if keep(k) {
			kites = append(kites, k)
		}
	}
	sort.Slice(kites, func(i, j int) bool { return kites[i].ID < kites[j].ID })
	return kites
}

func (s *Memory) KitesByRoom(_ context.Context, roomID int64) ([]kitedrift.Kite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kitesWhere(func(k kitedrift.Kite) bool { return k.RoomID == roomID }), nil
}

func (s *Memory) KitesByUser(_ context.Context, userID int64) ([]kitedrift.Kite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kitesWhere(func(k kitedrift.Kite) bool { return k.UserID == userID }), nil
}

func (s *Memory) UpdateKite(_ context.Context, id int64, upd KiteUpdate) (kitedrift.Kite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.kites[id]
	if !ok {
		return kitedrift.Kite{}, ErrNotFound
	}
	if upd.Latitude != nil {
		k.Latitude = *upd.Latitude
	}
	if upd.Longitude != nil {
		k.Longitude = *upd.Longitude
	}
	if upd.Altitude != nil {
		k.Altitude = *upd.Altitude
	}
	if upd.Coins != nil {
		k.Coins = *upd.Coins
	}
	if upd.IsActive != nil {
		k.IsActive = *upd.IsActive
	}
	s.kites[id] = k
	return k, nil
}

func (s *Memory) CreateEvent(_ context.Context, e kitedrift.GameEvent) (kitedrift.GameEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.id()
	e.CreatedAt = time.Now().UTC()
	s.events[e.ID] = e
	return e, nil
}

func (s *Memory) EventsByRoom(_ context.Context, roomID int64) ([]kitedrift.GameEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var events []kitedrift.GameEvent
	for _, e := range s.events {
		if e.RoomID == roomID {
			events = append(events, e)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	return events, nil
}

func (s *Memory) DeleteEvent(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.events, id)
	return nil
}

func (s *Memory) AddMember(_ context.Context, roomID, userID int64) (kitedrift.RoomMembership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members {
		if m.RoomID == roomID && m.UserID == userID {
			return m, nil
		}
	}
	m := kitedrift.RoomMembership{ID: s.id(), RoomID: roomID, UserID: userID, JoinedAt: time.Now().UTC()}
	s.members[m.ID] = m
	return m, nil
}

func (s *Memory) MembersByRoom(_ context.Context, roomID int64) ([]kitedrift.RoomMembership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var members []kitedrift.RoomMembership
	for _, m := range s.members {
		if m.RoomID == roomID {
			members = append(members, m)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
	return members, nil
}

func (s *Memory) RemoveMember(_ context.Context, roomID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, m := range s.members {
		if m.RoomID == roomID && m.UserID == userID {
			delete(s.members, id)
			return nil
		}
	}
	return nil
}

func (s *Memory) CreateSkin(_ context.Context, name, imageURL string, isDefault bool) (kitedrift.KiteSkin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sk := kitedrift.KiteSkin{ID: s.id(), Name: name, ImageURL: imageURL, IsDefault: isDefault}
	s.skins[sk.ID] = sk
	return sk, nil
}

func (s *Memory) ListSkins(_ context.Context) ([]kitedrift.KiteSkin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	skins := make([]kitedrift.KiteSkin, 0, len(s.skins))
	for _, sk := range s.skins {
		skins = append(skins, sk)
	}
	sort.Slice(skins, func(i, j int) bool { return skins[i].ID < skins[j].ID })
	return skins, nil
}
