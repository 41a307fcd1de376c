package codec_test

import (
	"fmt"
	"strings"

	"github.com/anirudhraja/protoshadow/codec"
)

// ===== ACCOUNT =====

type Status int32

const (
	StatusPending Status = 0
	StatusActive  Status = 1
	StatusClosed  Status = 2
)

var statusCodec = codec.Enum(StatusActive, map[Status]string{
	StatusPending: "PENDING",
	StatusActive:  "ACTIVE",
	StatusClosed:  "CLOSED",
}).Named("Status")

type Account struct {
	IDs    []string
	Status Status
}

var accountType = codec.MustMessage("Account",
	codec.NewField(1, "id_vec", codec.Repeated(codec.String()), func(a *Account) *[]string { return &a.IDs }),
	codec.NewField(3, "status", codec.Codec[Status](statusCodec), func(a *Account) *Status { return &a.Status }),
)

// ===== ORDER =====

type Priority int32

const (
	PriorityLow    Priority = 0
	PriorityHigh   Priority = 1
	PriorityUrgent Priority = 2
)

var priorityCodec = codec.Enum(PriorityLow, map[Priority]string{
	PriorityLow:    "PRIORITY_LOW",
	PriorityHigh:   "PRIORITY_HIGH",
	PriorityUrgent: "PRIORITY_URGENT",
}).Named("Priority")

type Item struct {
	SKU   string
	Count uint32
}

var itemType = codec.MustMessage("Item",
	codec.NewField(1, "sku", codec.String(), func(i *Item) *string { return &i.SKU }),
	codec.NewField(2, "count", codec.Uint32(), func(i *Item) *uint32 { return &i.Count }),
)

type Address struct {
	Street string
	City   string
}

var addressType = codec.MustMessage("Address",
	codec.NewField(1, "street", codec.String(), func(a *Address) *string { return &a.Street }),
	codec.NewField(2, "city", codec.String(), func(a *Address) *string { return &a.City }),
)

// Payment is the oneof group of an order: a Card or a Voucher
type Payment interface{ isPayment() }

type Card struct {
	Number string
	Expiry string
}

func (Card) isPayment() {}

var cardType = codec.MustMessage("Card",
	codec.NewField(1, "number", codec.String(), func(c *Card) *string { return &c.Number }),
	codec.NewField(2, "expiry", codec.String(), func(c *Card) *string { return &c.Expiry }),
)

type Voucher struct{ Code string }

func (Voucher) isPayment() {}

// voucherCodec stores a voucher as its bare code. Codes are upper case
// without spaces.
var voucherCodec = codec.Shadow[Voucher, string](codec.String(),
	func(v *Voucher) (string, error) {
		if strings.Contains(v.Code, " ") {
			return "", fmt.Errorf("voucher code %q contains a space", v.Code)
		}
		return v.Code, nil
	},
	func(s *string) (Voucher, error) {
		if *s != strings.ToUpper(*s) {
			return Voucher{}, fmt.Errorf("voucher code %q is not upper case", *s)
		}
		return Voucher{Code: *s}, nil
	},
)

type Order struct {
	ID       uint64
	Customer string
	Quantity int32
	Delta    int64
	Price    float64
	Weight   float32
	Checksum uint32
	Serial   int64
	Paid     bool
	Payload  []byte
	Priority Priority
	Tags     []string
	Lines    []int32
	Items    []Item
	Attrs    map[string]int64
	Shipping *Address
	Note     *string
	Payment  Payment
	Level    int8
}

var orderType = codec.MustMessage("Order",
	codec.NewField(1, "id", codec.Uint64(), func(o *Order) *uint64 { return &o.ID }),
	codec.NewField(2, "customer", codec.String(), func(o *Order) *string { return &o.Customer }),
	codec.NewField(3, "quantity", codec.Int32(), func(o *Order) *int32 { return &o.Quantity }),
	codec.NewField(4, "delta", codec.Sint64(), func(o *Order) *int64 { return &o.Delta }),
	codec.NewField(5, "price", codec.Double(), func(o *Order) *float64 { return &o.Price }),
	codec.NewField(6, "weight", codec.Float(), func(o *Order) *float32 { return &o.Weight }),
	codec.NewField(7, "checksum", codec.Fixed32(), func(o *Order) *uint32 { return &o.Checksum }),
	codec.NewField(8, "serial", codec.Sfixed64(), func(o *Order) *int64 { return &o.Serial }),
	codec.NewField(9, "paid", codec.Bool(), func(o *Order) *bool { return &o.Paid }),
	codec.NewField(10, "payload", codec.Bytes(), func(o *Order) *[]byte { return &o.Payload }),
	codec.NewField(11, "priority", codec.Codec[Priority](priorityCodec), func(o *Order) *Priority { return &o.Priority }),
	codec.NewField(12, "tags", codec.Repeated(codec.String()), func(o *Order) *[]string { return &o.Tags }),
	codec.NewField(13, "lines", codec.Repeated(codec.Int32()), func(o *Order) *[]int32 { return &o.Lines }),
	codec.NewField(14, "items", codec.Repeated(codec.Codec[Item](itemType)), func(o *Order) *[]Item { return &o.Items }),
	codec.NewField(15, "attrs", codec.Map(codec.String(), codec.Int64()), func(o *Order) *map[string]int64 { return &o.Attrs }),
	codec.NewField(16, "shipping", codec.Optional(codec.Codec[Address](addressType)), func(o *Order) **Address { return &o.Shipping }),
	codec.NewField(17, "note", codec.Optional(codec.String()), func(o *Order) **string { return &o.Note }),
	codec.OneofField("payment", func(o *Order) *Payment { return &o.Payment },
		codec.Variant[Payment, Card](18, "card", cardType),
		codec.Variant[Payment, Voucher](19, "voucher", voucherCodec),
	),
	codec.NewField(20, "level", codec.Int8(), func(o *Order) *int8 { return &o.Level }),
)

func sampleOrder() Order {
	note := "leave at the door"
	return Order{
		ID:       42,
		Customer: "Ada",
		Quantity: -3,
		Delta:    -1200,
		Price:    19.5,
		Weight:   1.25,
		Checksum: 0xdeadbeef,
		Serial:   -7,
		Paid:     true,
		Payload:  []byte{0x00, 0x01, 0xff},
		Priority: PriorityUrgent,
		Tags:     []string{"gift", "fragile"},
		Lines:    []int32{3, 1, -2},
		Items:    []Item{{SKU: "A-1", Count: 2}, {SKU: "B-9"}},
		Attrs:    map[string]int64{"weight_g": 900, "boxes": 2, "zero": 0},
		Shipping: &Address{Street: "1 Main St", City: "Springfield"},
		Note:     &note,
		Payment:  Card{Number: "4111", Expiry: "12/30"},
		Level:    -5,
	}
}

// ===== RECURSIVE =====

type Node struct {
	Value int32
	Next  *Node
}

func newNodeType() *codec.MessageType[Node] {
	var m *codec.MessageType[Node]
	m = codec.MustMessage("Node",
		codec.NewField(1, "value", codec.Int32(), func(n *Node) *int32 { return &n.Value }),
		codec.NewField(2, "next", codec.Optional(codec.Lazy("Node", func() codec.Codec[Node] { return m })),
			func(n *Node) **Node { return &n.Next }),
	)
	return m
}

var nodeType = newNodeType()

// chain returns a root node with depth nested nodes below it
func chain(depth int) *Node {
	root := &Node{}
	cur := root
	for i := 1; i <= depth; i++ {
		cur.Next = &Node{Value: int32(i)}
		cur = cur.Next
	}
	return root
}
