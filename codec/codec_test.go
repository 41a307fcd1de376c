package codec_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/anirudhraja/protoshadow/codec"
	"github.com/anirudhraja/protoshadow/wire"
)

func TestAccount_DefaultOmission(t *testing.T) {
	tests := []struct {
		name    string
		account Account
		want    []byte
	}{
		{
			name:    "ids_with_default_status",
			account: Account{IDs: []string{"a", "b"}, Status: StatusActive},
			want:    []byte{0x0a, 0x01, 0x61, 0x0a, 0x01, 0x62},
		},
		{
			name:    "non_default_zero_status",
			account: Account{Status: StatusPending},
			want:    []byte{0x18, 0x00},
		},
		{
			name:    "ids_and_closed",
			account: Account{IDs: []string{"x"}, Status: StatusClosed},
			want:    []byte{0x0a, 0x01, 0x78, 0x18, 0x02},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := codec.Encode[Account](accountType, &tt.account)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			decoded, err := codec.Decode[Account](accountType, got)
			require.NoError(t, err)
			assert.Equal(t, tt.account.Status, decoded.Status)
			assert.Equal(t, len(tt.account.IDs), len(decoded.IDs))
		})
	}
}

func TestAccount_AllDefaultIsEmpty(t *testing.T) {
	var a Account
	accountType.Reset(&a)
	require.Equal(t, StatusActive, a.Status)

	got, err := codec.Encode[Account](accountType, &a)
	require.NoError(t, err)
	assert.Empty(t, got)

	decoded, err := codec.Decode[Account](accountType, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, decoded.Status, "absent fields decode to the declared default")
	assert.Nil(t, decoded.IDs)
}

func TestOrder_RoundTrip(t *testing.T) {
	order := sampleOrder()

	data, err := codec.Encode[Order](orderType, &order)
	require.NoError(t, err)

	decoded, err := codec.Decode[Order](orderType, data)
	require.NoError(t, err)
	assert.Equal(t, order, decoded)

	again, err := codec.Encode[Order](orderType, &decoded)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestOrder_VoucherRoundTrip(t *testing.T) {
	order := Order{Payment: Voucher{Code: "SPRING25"}}

	data, err := codec.Encode[Order](orderType, &order)
	require.NoError(t, err)
	// field 19, length 8
	assert.Equal(t, []byte{0x9a, 0x01, 0x08}, data[:3])

	decoded, err := codec.Decode[Order](orderType, data)
	require.NoError(t, err)
	assert.Equal(t, Voucher{Code: "SPRING25"}, decoded.Payment)
}

func TestOrder_OneofLastCaseWins(t *testing.T) {
	var data []byte
	card, err := codec.Encode[Order](orderType, &Order{Payment: Card{Number: "4111"}})
	require.NoError(t, err)
	voucher, err := codec.Encode[Order](orderType, &Order{Payment: Voucher{Code: "X1"}})
	require.NoError(t, err)
	data = append(data, card...)
	data = append(data, voucher...)

	decoded, err := codec.Decode[Order](orderType, data)
	require.NoError(t, err)
	assert.Equal(t, Voucher{Code: "X1"}, decoded.Payment)

	// a repeated case merges into the value already held
	data = append(append([]byte{}, card...), mustEncode(t, &Order{Payment: Card{Expiry: "01/29"}})...)
	decoded, err = codec.Decode[Order](orderType, data)
	require.NoError(t, err)
	assert.Equal(t, Card{Number: "4111", Expiry: "01/29"}, decoded.Payment)
}

func TestOrder_OptionalPresence(t *testing.T) {
	empty := ""
	data, err := codec.Encode[Order](orderType, &Order{Note: &empty})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x8a, 0x01, 0x00}, data, "a present empty note is still written")

	decoded, err := codec.Decode[Order](orderType, data)
	require.NoError(t, err)
	require.NotNil(t, decoded.Note)
	assert.Equal(t, "", *decoded.Note)

	data, err = codec.Encode[Order](orderType, &Order{Shipping: &Address{}})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x82, 0x01, 0x00}, data)

	decoded, err = codec.Decode[Order](orderType, nil)
	require.NoError(t, err)
	assert.Nil(t, decoded.Note)
	assert.Nil(t, decoded.Shipping)
}

func TestEncode_Deterministic(t *testing.T) {
	order := sampleOrder()
	order.Attrs = map[string]int64{}
	for i := 0; i < 64; i++ {
		order.Attrs[string(rune('a'+i%26))+string(rune('A'+i/26))] = int64(i)
	}

	first := mustEncode(t, &order)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, mustEncode(t, &order))
	}
}

func TestMap_EntriesSortedByKey(t *testing.T) {
	c := codec.Map(codec.String(), codec.Int64())
	m := map[string]int64{"b": 2, "a": 1}

	got, err := codec.Encode(c, &m)
	require.NoError(t, err)
	want := []byte{
		0x0a, 0x05, 0x0a, 0x01, 'a', 0x10, 0x01,
		0x0a, 0x05, 0x0a, 0x01, 'b', 0x10, 0x02,
	}
	assert.Equal(t, want, got)

	zero := map[string]int64{"a": 0}
	got, err = codec.Encode(c, &zero)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x0a, 0x03, 0x0a, 0x01, 'a'}, got, "default values are left out of the entry")

	decoded, err := codec.Decode(c, got)
	require.NoError(t, err)
	assert.Equal(t, zero, decoded)
}

func TestMap_BoolKeys(t *testing.T) {
	c := codec.MapFunc(codec.Bool(), codec.String(), codec.CompareBool)
	m := map[bool]string{true: "yes", false: "no"}

	data, err := codec.Encode(c, &m)
	require.NoError(t, err)
	// the false entry has no key field and comes first
	assert.Equal(t, []byte{0x0a, 0x04, 0x12, 0x02, 'n', 'o'}, data[:6])

	decoded, err := codec.Decode(c, data)
	require.NoError(t, err)
	assert.Equal(t, m, decoded)
}

func TestEncode_RootValues(t *testing.T) {
	tests := []struct {
		name string
		enc  func() ([]byte, error)
		want []byte
	}{
		{"int32", func() ([]byte, error) { v := int32(150); return codec.Encode(codec.Int32(), &v) }, []byte{0x08, 0x96, 0x01}},
		{"zero_int32", func() ([]byte, error) { v := int32(0); return codec.Encode(codec.Int32(), &v) }, []byte{}},
		{"string", func() ([]byte, error) { v := "hi"; return codec.Encode(codec.String(), &v) }, []byte{0x0a, 0x02, 'h', 'i'}},
		{"packed", func() ([]byte, error) { v := []int32{1, 2}; return codec.Encode(codec.Repeated(codec.Int32()), &v) }, []byte{0x0a, 0x02, 0x01, 0x02}},
		{"negative_zero", func() ([]byte, error) {
			v := float32(0)
			v = -v
			return codec.Encode(codec.Float(), &v)
		}, []byte{0x0d, 0x00, 0x00, 0x00, 0x80}},
		{"declared_default", func() ([]byte, error) {
			v := int32(7)
			return codec.Encode(codec.WithDefault(codec.Int32(), 7), &v)
		}, []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.enc()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_RootValues(t *testing.T) {
	v, err := codec.Decode(codec.Int32(), []byte{0x08, 0x96, 0x01})
	require.NoError(t, err)
	assert.Equal(t, int32(150), v)

	def, err := codec.Decode(codec.WithDefault(codec.Int32(), 7), nil)
	require.NoError(t, err)
	assert.Equal(t, int32(7), def)

	// other field numbers around a root value are skipped
	s, err := codec.Decode(codec.String(), []byte{0x10, 0x01, 0x0a, 0x02, 'o', 'k'})
	require.NoError(t, err)
	assert.Equal(t, "ok", s)
}

func TestRepeated_PackedAndUnpacked(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want []int32
	}{
		{"packed", []byte{0x6a, 0x02, 0x01, 0x02}, []int32{1, 2}},
		{"unpacked", []byte{0x68, 0x01, 0x68, 0x02}, []int32{1, 2}},
		{"mixed", []byte{0x68, 0x01, 0x6a, 0x02, 0x02, 0x03}, []int32{1, 2, 3}},
		{"empty_packed", []byte{0x6a, 0x00}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := codec.Decode[Order](orderType, tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, decoded.Lines)
		})
	}
}

func TestDecode_UnknownFieldsSkipped(t *testing.T) {
	data := mustEncodeAccount(t, Account{IDs: []string{"a"}, Status: StatusClosed})

	var extra []byte
	extra = protowire.AppendTag(extra, 99, protowire.VarintType)
	extra = protowire.AppendVarint(extra, 123456)
	extra = protowire.AppendTag(extra, 50, protowire.BytesType)
	extra = protowire.AppendString(extra, "ignored")
	extra = protowire.AppendTag(extra, 7, protowire.StartGroupType)
	extra = protowire.AppendTag(extra, 1, protowire.Fixed32Type)
	extra = protowire.AppendFixed32(extra, 9)
	extra = protowire.AppendTag(extra, 7, protowire.EndGroupType)
	extra = protowire.AppendTag(extra, 8, protowire.Fixed64Type)
	extra = protowire.AppendFixed64(extra, 1)

	decoded, err := codec.Decode[Account](accountType, append(extra, data...))
	require.NoError(t, err)
	assert.Equal(t, Account{IDs: []string{"a"}, Status: StatusClosed}, decoded)
}

type Profile struct {
	Name    string
	Unknown []byte
}

func TestDecode_UnknownFieldsPreserved(t *testing.T) {
	profileType := codec.MustMessage("Profile",
		codec.NewField(1, "name", codec.String(), func(p *Profile) *string { return &p.Name }),
	).WithUnknownFields(func(p *Profile) *[]byte { return &p.Unknown })

	var data []byte
	data = protowire.AppendTag(data, 1, protowire.BytesType)
	data = protowire.AppendString(data, "ada")
	data = protowire.AppendTag(data, 7, protowire.VarintType)
	data = protowire.AppendVarint(data, 9)

	decoded, err := codec.Decode[Profile](profileType, data)
	require.NoError(t, err)
	assert.Equal(t, "ada", decoded.Name)
	assert.Equal(t, []byte{0x38, 0x09}, decoded.Unknown)

	again, err := codec.Encode[Profile](profileType, &decoded)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"truncated_string", []byte{0x12, 0x05, 'a'}, wire.ErrUnexpectedEOF},
		{"truncated_key", []byte{0x80}, wire.ErrUnexpectedEOF},
		{"bad_varint", []byte{0x08, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01}, wire.ErrInvalidVarint},
		{"string_as_varint", []byte{0x10, 0x01}, wire.ErrWireTypeMismatch},
		{"double_as_fixed32", []byte{0x2d, 0x00, 0x00, 0x00, 0x00}, wire.ErrWireTypeMismatch},
		{"invalid_utf8", []byte{0x12, 0x02, 0xc3, 0x28}, wire.ErrInvalidUTF8},
		{"int8_overflow", []byte{0xa0, 0x01, 0xac, 0x02}, wire.ErrFieldConversion},
		{"lower_case_voucher", []byte{0x9a, 0x01, 0x02, 'a', 'b'}, wire.ErrFieldConversion},
		{"field_zero", []byte{0x00, 0x01}, wire.ErrWireTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := codec.Decode[Order](orderType, tt.data)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, Order{}, decoded, "no partial value on failure")
		})
	}
}

func TestDecode_FieldPath(t *testing.T) {
	// items[0].count as a string
	item := []byte{0x12, 0x01, 'x'}
	data := append([]byte{0x72, byte(len(item))}, item...)

	_, err := codec.Decode[Order](orderType, data)
	require.ErrorIs(t, err, wire.ErrWireTypeMismatch)

	var fe *wire.FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, []string{"items", "count"}, fe.FieldPath)
}

func TestDecode_ClosedEnum(t *testing.T) {
	_, err := codec.Decode[Account](accountType, []byte{0x18, 0x07})
	require.ErrorIs(t, err, wire.ErrFieldConversion)

	open := codec.Enum[Priority](PriorityLow, nil)
	v, err := codec.Decode(codec.Codec[Priority](open), []byte{0x08, 0x07})
	require.NoError(t, err)
	assert.Equal(t, Priority(7), v)
}

func TestDecodeInto_ResetsOnError(t *testing.T) {
	acc := Account{IDs: []string{"stale"}, Status: StatusClosed}

	good := mustEncodeAccount(t, Account{IDs: []string{"a"}, Status: StatusPending})
	bad := append(append([]byte{}, good...), 0x0a, 0x05, 'x')

	err := codec.DecodeInto[Account](accountType, &acc, bad)
	require.ErrorIs(t, err, wire.ErrUnexpectedEOF)
	assert.Nil(t, acc.IDs)
	assert.Equal(t, StatusActive, acc.Status)

	require.NoError(t, codec.DecodeInto[Account](accountType, &acc, good))
	assert.Equal(t, Account{IDs: []string{"a"}, Status: StatusPending}, acc)
}

func TestMergeFrom_Appends(t *testing.T) {
	acc := Account{IDs: []string{"a"}, Status: StatusClosed}
	more := mustEncodeAccount(t, Account{IDs: []string{"b"}, Status: StatusActive})

	require.NoError(t, codec.MergeFrom[Account](accountType, &acc, more))
	assert.Equal(t, []string{"a", "b"}, acc.IDs)
	assert.Equal(t, StatusClosed, acc.Status, "an absent field leaves the current value")
}

func TestMergeFrom_ErrorKeepsEarlierFields(t *testing.T) {
	acc := Account{IDs: []string{"a"}}
	// id_vec "b", then id_vec with a length running past the input
	data := []byte{0x0a, 0x01, 'b', 0x0a, 0x05, 'c'}

	err := codec.MergeFrom[Account](accountType, &acc, data)
	require.ErrorIs(t, err, wire.ErrUnexpectedEOF)
	assert.Equal(t, []string{"a", "b"}, acc.IDs, "fields read before the failure stay merged")

	acc = Account{IDs: []string{"a"}}
	require.Error(t, codec.DecodeInto[Account](accountType, &acc, data))
	assert.Empty(t, acc.IDs)
}

func TestEncode_ConversionErrorHasPath(t *testing.T) {
	_, err := codec.Encode[Order](orderType, &Order{Payment: Voucher{Code: "TWO WORDS"}})
	require.ErrorIs(t, err, wire.ErrFieldConversion)

	var fe *wire.FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, []string{"voucher"}, fe.FieldPath)
}

func TestMessage_Validator(t *testing.T) {
	type Range struct{ Lo, Hi int32 }
	rangeType := codec.MustMessage("Range",
		codec.NewField(1, "lo", codec.Sint32(), func(r *Range) *int32 { return &r.Lo }),
		codec.NewField(2, "hi", codec.Sint32(), func(r *Range) *int32 { return &r.Hi }),
	).WithValidator(func(r *Range) error {
		if r.Lo > r.Hi {
			return errors.New("lo above hi")
		}
		return nil
	})

	ok := mustEncodeWith[Range](t, rangeType, &Range{Lo: -1, Hi: 4})
	decoded, err := codec.Decode[Range](rangeType, ok)
	require.NoError(t, err)
	assert.Equal(t, Range{Lo: -1, Hi: 4}, decoded)

	bad := mustEncodeWith[Range](t, rangeType, &Range{Lo: 5, Hi: 1})
	_, err = codec.Decode[Range](rangeType, bad)
	require.ErrorIs(t, err, wire.ErrFieldConversion)
	assert.Contains(t, err.Error(), "lo above hi")
}

func TestNewMessage_RejectsBadBindings(t *testing.T) {
	_, err := codec.NewMessage("Dup",
		codec.NewField(1, "a", codec.Int32(), func(a *Account) *int32 { return new(int32) }),
		codec.NewField(1, "b", codec.String(), func(a *Account) *string { return new(string) }),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "share number 1")

	assert.Panics(t, func() {
		codec.MustMessage("Zero", codec.NewField(0, "z", codec.Int32(), func(a *Account) *int32 { return new(int32) }))
	})
}

func TestRecursion_Limit(t *testing.T) {
	data := mustEncodeWith[Node](t, nodeType, chain(5))

	decoded, err := codec.Decode[Node](nodeType, data, codec.WithMaxDepth(5))
	require.NoError(t, err)
	depth := 0
	for n := decoded.Next; n != nil; n = n.Next {
		depth++
		assert.Equal(t, int32(depth), n.Value)
	}
	assert.Equal(t, 5, depth)

	deeper := mustEncodeWith[Node](t, nodeType, chain(6))
	_, err = codec.Decode[Node](nodeType, deeper, codec.WithMaxDepth(5))
	require.ErrorIs(t, err, wire.ErrRecursionLimit)

	_, err = codec.Decode[Node](nodeType, deeper, codec.WithMaxDepth(5), codec.WithoutRecursionLimit())
	require.NoError(t, err)
}

func TestRecursion_DefaultLimit(t *testing.T) {
	ok := mustEncodeWith[Node](t, nodeType, chain(wire.DefaultMaxDepth))
	_, err := codec.Decode[Node](nodeType, ok, codec.WithConfig(wire.DefaultConfig()))
	require.NoError(t, err)

	tooDeep := mustEncodeWith[Node](t, nodeType, chain(wire.DefaultMaxDepth+1))
	_, err = codec.Decode[Node](nodeType, tooDeep, codec.WithConfig(wire.DefaultConfig()))
	require.ErrorIs(t, err, wire.ErrRecursionLimit)
}

func TestDecode_SkipUTF8Check(t *testing.T) {
	data := []byte{0x12, 0x02, 0xc3, 0x28}
	decoded, err := codec.Decode[Order](orderType, data, codec.WithoutUTF8Check())
	require.NoError(t, err)
	assert.Equal(t, "\xc3\x28", decoded.Customer)
}

func TestArchive(t *testing.T) {
	order := sampleOrder()
	want := mustEncode(t, &order)

	archived, err := codec.Archive[Order](orderType, &order, codec.WithCapacity(8))
	require.NoError(t, err)
	assert.Equal(t, len(want), archived.Len())
	assert.Equal(t, want, archived.Bytes())
	assert.Equal(t, append([]byte{0x01}, want...), archived.AppendTo([]byte{0x01}))

	var buf bytes.Buffer
	n, err := archived.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(len(want)), n)
	assert.Equal(t, want, buf.Bytes())
}

func TestEncodeTo_ReusedWriter(t *testing.T) {
	w := wire.NewReverseWriter(16)
	for _, acc := range []Account{{IDs: []string{"a"}}, {Status: StatusClosed}} {
		w.Reset()
		require.NoError(t, codec.EncodeTo[Account](w, accountType, &acc))
		assert.Equal(t, mustEncodeAccount(t, acc), w.Written())
	}
}

func TestSchema_Descriptors(t *testing.T) {
	msg := orderType.Schema()
	require.Len(t, msg.Fields, 20)
	assert.Equal(t, []string{"payment"}, msg.Oneofs())

	note := msg.FieldByNumber(17)
	require.NotNil(t, note)
	assert.True(t, note.Optional)

	lines := msg.FieldByNumber(13)
	require.NotNil(t, lines)
	assert.True(t, lines.Packed())

	status := accountType.Schema().FieldByNumber(3)
	require.NotNil(t, status)
	assert.Equal(t, "ACTIVE", status.Default)
	assert.Equal(t, "Status", status.TypeName)
}

func mustEncode(t *testing.T, o *Order) []byte {
	t.Helper()
	return mustEncodeWith[Order](t, orderType, o)
}

func mustEncodeAccount(t *testing.T, a Account) []byte {
	t.Helper()
	return mustEncodeWith[Account](t, accountType, &a)
}

func mustEncodeWith[T any](t *testing.T, c codec.Codec[T], v *T) []byte {
	t.Helper()
	data, err := codec.Encode(c, v)
	require.NoError(t, err)
	return data
}
