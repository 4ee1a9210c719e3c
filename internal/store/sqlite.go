package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/skyloft/kitedrift/internal/kitedrift"
)

// SQLite implements Store on top of a libSQL connection. Timestamps are
// stored as RFC3339 strings, booleans as integers.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func (s *SQLite) CreateUser(ctx context.Context, username, passwordHash string) (kitedrift.User, error) {
	var u kitedrift.User
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (username, password_hash)
		VALUES (?, ?)
		RETURNING id, username, password_hash
	`, username, passwordHash).Scan(&u.ID, &u.Username, &u.PasswordHash)
	return u, err
}

func (s *SQLite) GetUser(ctx context.Context, id int64) (kitedrift.User, error) {
	var u kitedrift.User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash FROM users WHERE id = ?
	`, id).Scan(&u.ID, &u.Username, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrNotFound
	}
	return u, err
}

func (s *SQLite) GetUserByUsername(ctx context.Context, username string) (kitedrift.User, error) {
	var u kitedrift.User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash FROM users WHERE username = ?
	`, username).Scan(&u.ID, &u.Username, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrNotFound
	}
	return u, err
}

func (s *SQLite) CreateRoom(ctx context.Context, name string, creatorID int64, maxPlayers, targetCoins int) (kitedrift.Room, error) {
	var (
		r         kitedrift.Room
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO rooms (name, creator_id, max_players, target_coins)
		VALUES (?, ?, ?, ?)
		RETURNING id, name, creator_id, max_players, target_coins, status, created_at
	`, name, creatorID, maxPlayers, targetCoins).Scan(
		&r.ID, &r.Name, &r.CreatorID, &r.MaxPlayers, &r.TargetCoins, &r.Status, &createdAt)
	r.CreatedAt = parseTime(createdAt)
	return r, err
}

func (s *SQLite) GetRoom(ctx context.Context, id int64) (kitedrift.Room, error) {
	var (
		r         kitedrift.Room
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, creator_id, max_players, target_coins, status, created_at
		FROM rooms WHERE id = ?
	`, id).Scan(&r.ID, &r.Name, &r.CreatorID, &r.MaxPlayers, &r.TargetCoins, &r.Status, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return r, ErrNotFound
	}
	r.CreatedAt = parseTime(createdAt)
	return r, err
}

func (s *SQLite) ListRooms(ctx context.Context) ([]kitedrift.Room, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, creator_id, max_players, target_coins, status, created_at
		FROM rooms ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []kitedrift.Room
	for rows.Next() {
		var (
			r         kitedrift.Room
			createdAt string
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.CreatorID, &r.MaxPlayers, &r.TargetCoins, &r.Status, &createdAt); err != nil {
			return nil, err
		}
		r.CreatedAt = parseTime(createdAt)
		rooms = append(rooms, r)
	}
	return rooms, rows.Err()
}

func (s *SQLite) UpdateRoomStatus(ctx context.Context, id int64, status kitedrift.RoomStatus) (kitedrift.Room, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE rooms SET status = ? WHERE id = ?
	`, status, id)
	if err != nil {
		return kitedrift.Room{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return kitedrift.Room{}, ErrNotFound
	}
	return s.GetRoom(ctx, id)
}

func (s *SQLite) CreateKite(ctx context.Context, k kitedrift.Kite) (kitedrift.Kite, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO kites (user_id, room_id, latitude, longitude, altitude, skin_id)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id, coins, is_active
	`, k.UserID, k.RoomID, k.Latitude, k.Longitude, k.Altitude, k.SkinID).Scan(&k.ID, &k.Coins, &k.IsActive)
	return k, err
}

func (s *SQLite) GetKite(ctx context.Context, id int64) (kitedrift.Kite, error) {
	var k kitedrift.Kite
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, room_id, latitude, longitude, altitude, skin_id, coins, is_active
		FROM kites WHERE id = ?
	`, id).Scan(&k.ID, &k.UserID, &k.RoomID, &k.Latitude, &k.Longitude, &k.Altitude, &k.SkinID, &k.Coins, &k.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return k, ErrNotFound
	}
	return k, err
}

func (s *SQLite) kitesWhere(ctx context.Context, where string, arg any) ([]kitedrift.Kite, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, room_id, latitude, longitude, altitude, skin_id, coins, is_active
		FROM kites WHERE `+where+` ORDER BY id
	`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var kites []kitedrift.Kite
	for rows.Next() {
		var k kitedrift.Kite
		if err := rows.Scan(&k.ID, &k.UserID, &k.RoomID, &k.Latitude, &k.Longitude, &k.Altitude, &k.SkinID, &k.Coins, &k.IsActive); err != nil {
			return nil, err
		}
		kites = append(kites, k)
	}
	return kites, rows.Err()
}

func (s *SQLite) KitesByRoom(ctx context.Context, roomID int64) ([]kitedrift.Kite, error) {
	return s.kitesWhere(ctx, "room_id = ?", roomID)
}

func (s *SQLite) KitesByUser(ctx context.Context, userID int64) ([]kitedrift.Kite, error) {
	return s.kitesWhere(ctx, "user_id = ?", userID)
}

func (s *SQLite) UpdateKite(ctx context.Context, id int64, upd KiteUpdate) (kitedrift.Kite, error) {
	var (
		sets []string
		args []any
	)
	if upd.Latitude != nil {
		sets, args = append(sets, "latitude = ?"), append(args, *upd.Latitude)
	}
	if upd.Longitude != nil {
		sets, args = append(sets, "longitude = ?"), append(args, *upd.Longitude)
	}
	if upd.Altitude != nil {
		sets, args = append(sets, "altitude = ?"), append(args, *upd.Altitude)
	}
	if upd.Coins != nil {
		sets, args = append(sets, "coins = ?"), append(args, *upd.Coins)
	}
	if upd.IsActive != nil {
		sets, args = append(sets, "is_active = ?"), append(args, *upd.IsActive)
	}
	if len(sets) == 0 {
		return s.GetKite(ctx, id)
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE kites SET %s WHERE id = ?", strings.Join(sets, ", ")), args...)
	if err != nil {
		return kitedrift.Kite{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return kitedrift.Kite{}, ErrNotFound
	}
	return s.GetKite(ctx, id)
}

func (s *SQLite) CreateEvent(ctx context.Context, e kitedrift.GameEvent) (kitedrift.GameEvent, error) {
	var (
		expires   any
		createdAt string
	)
	if e.ExpiresAt != nil {
		expires = e.ExpiresAt.UTC().Format(time.RFC3339Nano)
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO game_events (room_id, type, latitude, longitude, value, radius, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id, created_at
	`, e.RoomID, e.Type, e.Latitude, e.Longitude, e.Value, e.Radius, expires).Scan(&e.ID, &createdAt)
	e.CreatedAt = parseTime(createdAt)
	return e, err
}

func (s *SQLite) EventsByRoom(ctx context.Context, roomID int64) ([]kitedrift.GameEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, room_id, type, latitude, longitude, value, radius, expires_at, created_at
		FROM game_events WHERE room_id = ? ORDER BY id
	`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []kitedrift.GameEvent
	for rows.Next() {
		var (
			e         kitedrift.GameEvent
			radius    sql.NullFloat64
			expires   sql.NullString
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.RoomID, &e.Type, &e.Latitude, &e.Longitude, &e.Value, &radius, &expires, &createdAt); err != nil {
			return nil, err
		}
		if radius.Valid {
			r := radius.Float64
			e.Radius = &r
		}
		if expires.Valid {
			t := parseTime(expires.String)
			e.ExpiresAt = &t
		}
		e.CreatedAt = parseTime(createdAt)
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *SQLite) DeleteEvent(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM game_events WHERE id = ?`, id)
	return err
}

func (s *SQLite) AddMember(ctx context.Context, roomID, userID int64) (kitedrift.RoomMembership, error) {
	// ON CONFLICT keeps the original joined_at, preserving at most one
	// active membership per (room, user) pair.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO room_players (room_id, user_id)
		VALUES (?, ?)
		ON CONFLICT(room_id, user_id) DO NOTHING
	`, roomID, userID)
	if err != nil {
		return kitedrift.RoomMembership{}, err
	}

	var (
		m        kitedrift.RoomMembership
		joinedAt string
	)
	err = s.db.QueryRowContext(ctx, `
		SELECT id, room_id, user_id, joined_at
		FROM room_players WHERE room_id = ? AND user_id = ?
	`, roomID, userID).Scan(&m.ID, &m.RoomID, &m.UserID, &joinedAt)
	m.JoinedAt = parseTime(joinedAt)
	return m, err
}

func (s *SQLite) MembersByRoom(ctx context.Context, roomID int64) ([]kitedrift.RoomMembership, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, room_id, user_id, joined_at
		FROM room_players WHERE room_id = ? ORDER BY joined_at
	`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []kitedrift.RoomMembership
	for rows.Next() {
		var (
			m        kitedrift.RoomMembership
			joinedAt string
		)
		if err := rows.Scan(&m.ID, &m.RoomID, &m.UserID, &joinedAt); err != nil {
			return nil, err
		}
		m.JoinedAt = parseTime(joinedAt)
		members = append(members, m)
	}
	return members, rows.Err()
}

func (s *SQLite) RemoveMember(ctx context.Context, roomID, userID int64) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM room_players WHERE room_id = ? AND user_id = ?
	`, roomID, userID)
	return err
}

func (s *SQLite) CreateSkin(ctx context.Context, name, imageURL string, isDefault bool) (kitedrift.KiteSkin, error) {
	var sk kitedrift.KiteSkin
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO kite_skins (name, image_url, is_default)
		VALUES (?, ?, ?)
		RETURNING id, name, image_url, is_default
	`, name, imageURL, isDefault).Scan(&sk.ID, &sk.Name, &sk.ImageURL, &sk.IsDefault)
	return sk, err
}

func (s *SQLite) ListSkins(ctx context.Context) ([]kitedrift.KiteSkin, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, image_url, is_default FROM kite_skins ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var skins []kitedrift.KiteSkin
	for rows.Next() {
		var sk kitedrift.KiteSkin
		if err := rows.Scan(&sk.ID, &sk.Name, &sk.ImageURL, &sk.IsDefault); err != nil {
			return nil, err
		}
		skins = append(skins, sk)
	}
	return skins, rows.Err()
}
