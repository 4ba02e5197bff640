package common

import "strconv"

// Key addresses a child either by positional index or by name.
type Key struct {
	name  string
	index int
	named bool
}

func IndexKey(i int) Key {
	return Key{index: i}
}

func NameKey(name string) Key {
	return Key{name: name, named: true}
}

// ParseKey turns the textual form of a key back into a Key. Canonical decimal
// integers become index keys, everything else is a name.
func ParseKey(text string) Key {
	if n, err := strconv.Atoi(text); err == nil && strconv.Itoa(n) == text {
		return IndexKey(n)
	}
	return NameKey(text)
}

func (k Key) IsNamed() bool { return k.named }
func (k Key) Name() string  { return k.name }
func (k Key) Index() int    { return k.index }

func (k Key) Equal(o Key) bool {
	return k == o
}

func (k Key) String() string {
	if k.named {
		return k.name
	}
	return strconv.Itoa(k.index)
}
