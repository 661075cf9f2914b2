package state

type Pair[X any, Y any] struct {
	V1 X
	V2 Y
}
