// Package sqliteorm stores Go structs in SQLite.
//
// A model type is flattened into dotted property paths ("Address.City"),
// one column per path. Slice and array fields are stored in element tables
// linked to their owner row, so nested collections survive a round trip.
// Every statement against one database goes through a single gate, which
// makes a DB safe for concurrent use.
//
//	db, err := sqliteorm.Open("people.sqlite")
//	people, err := sqliteorm.New[Person](ctx, db)
//	err = people.Add(ctx, Person{FirstName: "Ann", Age: 30})
//	ann, err := people.Find(ctx, sqliteorm.Filter{"FirstName": "Ann"})
//
// Leaf types are booleans, numbers, strings, time.Time, []byte, types that
// implement encoding.TextMarshaler and encoding.TextUnmarshaler, and types
// added with RegisterType. Fields tagged `orm:"-"` are skipped and
// `orm:"Name"` renames a path segment.
package sqliteorm
