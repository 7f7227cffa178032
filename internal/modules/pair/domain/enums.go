//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package domain

// Mode decides whether a rule match permits or forbids forwarding
// ENUM(allow,block)
type Mode string

// Weekday names a day in a time window range
// ENUM(mon,tue,wed,thu,fri,sat,sun)
type Weekday string
