package sayna

// Ptr is a utility function that returns a pointer to the given value.
// This is useful for setting optional fields in structs that require
// pointers, such as LiveKitConfig fields.
//
// Example usage:
//
//	lk := sayna.LiveKitConfig{
//	    RoomName:             "demo",
//	    SaynaParticipantName: sayna.Ptr("Sayna AI"),
//	}
func Ptr[T any](v T) *T { return &v }
