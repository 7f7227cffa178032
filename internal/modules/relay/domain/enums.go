//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package domain

// State is a step of one message's lifecycle against one pair
// ENUM(received,blocked,sent,failed,mapped,removed,duplicate,noop,aborted)
type State string

// Operation names a transport call
// ENUM(send,edit,delete)
type Operation string
