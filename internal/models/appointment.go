package models

import "time"

type Appointment struct {
	ID        int64     `db:"id" json:"id"`
	Date      string    `db:"date" json:"date"`
	Time      string    `db:"time" json:"time"`
	Service   string    `db:"service" json:"service"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Service struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Duration string `json:"duration"`
}

// Services is the salon catalogue offered by the booking form.
var Services = []Service{
	{ID: "facial1", Name: "Deep Skin Cleansing", Category: "Facial", Duration: "60min"},
	{ID: "facial2", Name: "Anti-Aging Treatment", Category: "Facial", Duration: "90min"},
	{ID: "facial3", Name: "Facial Hydration", Category: "Facial", Duration: "45min"},
	{ID: "body1", Name: "Lymphatic Drainage", Category: "Body", Duration: "60min"},
	{ID: "body2", Name: "Body Contouring", Category: "Body", Duration: "75min"},
	{ID: "body3", Name: "Cellulite Treatment", Category: "Body", Duration: "60min"},
}

// TimeSlots are the bookable start times.
var TimeSlots = []string{"09:00", "10:00", "11:00", "14:00", "15:00", "16:00", "17:00"}

func ServiceByID(id string) (Service, bool) {
	for _, s := range Services {
		if s.ID == id {
			return s, true
		}
	}
	return Service{}, false
}

func ValidTimeSlot(t string) bool {
	for _, s := range TimeSlots {
		if s == t {
			return true
		}
	}
	return false
}
