// Package msgpack implements a streaming MessagePack codec: a Packer that
// serializes typed items into a caller-owned byte buffer, and an Unpacker
// that reads them back out, one item at a time.
//
// Both halves operate on a fixed window into the caller's buffer
// ([start, current, end)) and never allocate or own that memory. When the
// window is exhausted, a caller-supplied handler is invoked — OnOverflow
// for the Packer, OnUnderflow for the Unpacker — to supply more space.
// Without a handler, exhaustion is fatal and the context is poisoned:
// every later call returns ErrStopped until a fresh Packer/Unpacker is
// constructed.
//
// Encodings always use the shortest legal MessagePack form for a given
// value (e.g. a uint64 of 3 packs as a single positive fixint byte, not
// a uint64 field). Blob items (string/binary/extension) returned by
// Next alias the source buffer directly; they are valid only until the
// next call that might invoke OnUnderflow.
//
// Sub-packages:
//
//	internal/endian  big-endian load/store plus the startup self-check
//	value             dynamic Go value <-> MessagePack marshal/unmarshal
//	codecs            pluggable Codec[V] implementations (MessagePack, CBOR, protobuf)
//	log/{zap,logrus,slog}  Logger adapters for the optional diagnostic logger
package msgpack
