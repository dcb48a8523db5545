package domain

// Branch is a physical post office.
type Branch struct {
	ID      int64
	Name    string
	Address string
}

// Car is a vehicle used by drivers and couriers.
type Car struct {
	ID     int64
	Model  string
	Number string
}
