//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package domain

// Decision is the outcome of evaluating a filter config
// ENUM(allow,block)
type Decision string

// Rule names the filter category that produced a decision
// ENUM(none,media_type,time_window,keyword,regex)
type Rule string
