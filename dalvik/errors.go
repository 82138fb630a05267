package dalvik

import "fmt"

// MissingBodyError reports that an operation needed a method body but the
// method is abstract, native, or was decoded without code.
type MissingBodyError struct {
	Method MethodRef
}

func (e *MissingBodyError) Error() string {
	return fmt.Sprintf("missing implementation for %s", e.Method.Descriptor())
}

// OutOfBoundsError reports an instruction index outside a method body.
type OutOfBoundsError struct {
	Method MethodRef
	Index  int
	Len    int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("index %d out of bounds for %s (%d instructions)", e.Index, e.Method.Descriptor(), e.Len)
}
