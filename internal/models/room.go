package models

import "time"

// RoomStatus models the room lifecycle. Rooms referenced by existing
// allocations are never hard-deleted, only transitioned to INACTIVE.
type RoomStatus string

const (
	RoomStatusActive      RoomStatus = "ACTIVE"
	RoomStatusInactive    RoomStatus = "INACTIVE"
	RoomStatusMaintenance RoomStatus = "MAINTENANCE"
)

// RoomType categorises schedulable spaces.
type RoomType string

const (
	RoomTypeLecture     RoomType = "LECTURE"
	RoomTypeLaboratory  RoomType = "LABORATORY"
	RoomTypeComputerLab RoomType = "COMPUTER_LAB"
	RoomTypeLectureHall RoomType = "LECTURE_HALL"
	RoomTypeConference  RoomType = "CONFERENCE"
	RoomTypeAuditorium  RoomType = "AUDITORIUM"
	RoomTypeOther       RoomType = "OTHER"
)

// Room is a schedulable space in the campus catalog. Features is a
// bitmask matching engine.Feature.
type Room struct {
	ID        string     `db:"id" json:"id"`
	Building  string     `db:"building" json:"building"`
	Code      string     `db:"code" json:"code"`
	Capacity  int        `db:"capacity" json:"capacity"`
	RoomType  RoomType   `db:"room_type" json:"room_type"`
	Features  int64      `db:"features" json:"features"`
	Floor     int        `db:"floor" json:"floor"`
	Status    RoomStatus `db:"status" json:"status"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// RoomFilter describes query params for listing rooms.
type RoomFilter struct {
	Building  string
	Status    string
	RoomType  string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
