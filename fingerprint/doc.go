// Package fingerprint locates instructions and methods by what they do
// rather than where they are.
//
// The instruction matcher, [Find], scans a method body for the first window
// of consecutive instructions that satisfies a [Predicate], capturing operand
// values such as the register a result was moved into. [Sequence] builds
// predicates from per-instruction [Step]s, which is how most patches spell a
// pattern:
//
//	fingerprint.Sequence("primary player",
//		fingerprint.Invokes(dalvik.OpInvokeVirtual,
//			fingerprint.Named("getPrimaryPlayer").Returning("Lcom/amazon/avod/media/playback/VideoPlayer;")),
//		fingerprint.Op(dalvik.OpMoveResultObject).CaptureA("player"),
//	)
//
// [MethodFingerprint] does the same one level up: it picks a method out of a
// [dalvik.ClassSet] by class, signature, access flags, an opcode outline and
// referenced strings.
//
// Matching is first-match and read-only. Nothing in this package mutates a
// method.
package fingerprint
