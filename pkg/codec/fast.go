package codec

import (
	"sync"

	"buf.build/go/hyperpb"
	lru "github.com/hashicorp/golang-lru/v2"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// compiledTypes caches hyperpb types; compiling one is far slower than a
// single decode.
var (
	compiledOnce  sync.Once
	compiledTypes *lru.Cache[protoreflect.MessageDescriptor, *hyperpb.MessageType]
)

const compiledTypesSize = 64

func compiled(md protoreflect.MessageDescriptor) *hyperpb.MessageType {
	compiledOnce.Do(func() {
		// New only fails for a non-positive size
		compiledTypes, _ = lru.New[protoreflect.MessageDescriptor, *hyperpb.MessageType](compiledTypesSize)
	})

	if ty, ok := compiledTypes.Get(md); ok {
		return ty
	}
	ty := hyperpb.CompileMessageDescriptor(md)
	compiledTypes.Add(md, ty)
	return ty
}

func fastUnmarshal(md protoreflect.MessageDescriptor, data []byte) (proto.Message, error) {
	msg := hyperpb.NewMessage(compiled(md))
	if err := proto.Unmarshal(data, msg); err != nil {
		return nil, err
	}
	return msg, nil
}
