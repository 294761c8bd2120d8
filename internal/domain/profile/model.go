package profile

// Profile identifies the clinician whose name and specialty are stamped on
// committed evolutions.
type Profile struct {
	Name      string `json:"name"`
	Role      string `json:"role"`
	Specialty string `json:"specialty"`
}

// Default is the profile used until one is saved.
func Default() Profile {
	return Profile{Name: "Dr. Usuario", Role: "Médico", Specialty: "Medicina General"}
}
