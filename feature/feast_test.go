package feature

import (
	"math"
	"testing"

	feasttypes "github.com/feast-dev/feast/sdk/go/protos/feast/types"
)

func TestAsFloat64(t *testing.T) {
	tests := []struct {
		name   string
		val    *feasttypes.Value
		want   float64
		wantOK bool
	}{
		{
			name:   "double",
			val:    &feasttypes.Value{Val: &feasttypes.Value_DoubleVal{DoubleVal: 0.82}},
			want:   0.82,
			wantOK: true,
		},
		{
			name:   "float",
			val:    &feasttypes.Value{Val: &feasttypes.Value_FloatVal{FloatVal: 0.5}},
			want:   0.5,
			wantOK: true,
		},
		{
			name:   "int64",
			val:    &feasttypes.Value{Val: &feasttypes.Value_Int64Val{Int64Val: 42}},
			want:   42,
			wantOK: true,
		},
		{
			name:   "int32",
			val:    &feasttypes.Value{Val: &feasttypes.Value_Int32Val{Int32Val: 7}},
			want:   7,
			wantOK: true,
		},
		{
			name:   "bool true",
			val:    &feasttypes.Value{Val: &feasttypes.Value_BoolVal{BoolVal: true}},
			want:   1,
			wantOK: true,
		},
		{
			name:   "numeric string",
			val:    &feasttypes.Value{Val: &feasttypes.Value_StringVal{StringVal: "0.33"}},
			want:   0.33,
			wantOK: true,
		},
		{
			name: "non numeric string",
			val:  &feasttypes.Value{Val: &feasttypes.Value_StringVal{StringVal: "morning"}},
		},
		{
			name: "bytes unsupported",
			val:  &feasttypes.Value{Val: &feasttypes.Value_BytesVal{BytesVal: []byte{1}}},
		},
		{
			name: "empty oneof",
			val:  &feasttypes.Value{},
		},
		{
			name: "nil value",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := asFloat64(tt.val)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("got = %v, want %v", got, tt.want)
			}
		})
	}
}
