package model

import "time"

// Theater is a venue hosting one or more screens.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – display name of the theater.
//  City      – city used to order the program schedule.
//  County    – county or region.
//  Address   – street address.
//  Zipcode   – postal code.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Theater struct {
	ID        uint64    `json:"id"`         // theaters.id
	Name      string    `json:"name"`       // theaters.name
	City      string    `json:"city"`       // theaters.city
	County    string    `json:"county"`     // theaters.county
	Address   string    `json:"address"`    // theaters.address
	Zipcode   string    `json:"zipcode"`    // theaters.zipcode
	CreatedAt time.Time `json:"created_at"` // theaters.created_at
	UpdatedAt time.Time `json:"updated_at"` // theaters.updated_at
}
