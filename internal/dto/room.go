package dto

// CreateRoomRequest registers a schedulable space.
type CreateRoomRequest struct {
	Building string   `json:"building" validate:"required,max=120"`
	Code     string   `json:"code" validate:"required,max=40"`
	Capacity int      `json:"capacity" validate:"required,min=1"`
	RoomType string   `json:"roomType" validate:"required,oneof=LECTURE LABORATORY COMPUTER_LAB LECTURE_HALL CONFERENCE AUDITORIUM OTHER"`
	Features []string `json:"features" validate:"omitempty,dive,oneof=AC PROJECTOR WHITEBOARD PWD_ACCESS TV LAB_EQUIPMENT"`
	Floor    int      `json:"floor"`
}

// UpdateRoomRequest patches a room. Nil fields are left untouched.
type UpdateRoomRequest struct {
	Building *string   `json:"building" validate:"omitempty,max=120"`
	Code     *string   `json:"code" validate:"omitempty,max=40"`
	Capacity *int      `json:"capacity" validate:"omitempty,min=1"`
	RoomType *string   `json:"roomType" validate:"omitempty,oneof=LECTURE LABORATORY COMPUTER_LAB LECTURE_HALL CONFERENCE AUDITORIUM OTHER"`
	Features *[]string `json:"features" validate:"omitempty,dive,oneof=AC PROJECTOR WHITEBOARD PWD_ACCESS TV LAB_EQUIPMENT"`
	Floor    *int      `json:"floor"`
	Status   *string   `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE MAINTENANCE"`
}

// RoomResponse is the API view of a room.
type RoomResponse struct {
	ID       string   `json:"id"`
	Building string   `json:"building"`
	Code     string   `json:"code"`
	Capacity int      `json:"capacity"`
	RoomType string   `json:"roomType"`
	Features []string `json:"features"`
	Floor    int      `json:"floor"`
	Status   string   `json:"status"`
}

// RoomQuery filters room listings.
type RoomQuery struct {
	Building string `form:"building" json:"building"`
	Status   string `form:"status" json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE MAINTENANCE"`
	RoomType string `form:"roomType" json:"roomType"`
	Page     int    `form:"page" json:"page"`
	PageSize int    `form:"pageSize" json:"pageSize"`
}
