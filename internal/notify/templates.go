package notify

import (
	"fmt"

	"github.com/drink-orders/internal/line"
	"github.com/drink-orders/internal/model"
)

const (
	TriggerPhrase = "สั่งเครื่องดื่ม"
	OrderPrompt   = "☕ พิมพ์ชื่อเครื่องดื่มที่ต้องการ พร้อมหมายเหตุ (ถ้ามี) ได้เลย"
	EchoPrefix    = "คุณพิมพ์ว่า: "

	ReadyText     = "🎉 เครื่องดื่มของคุณพร้อมแล้ว! กรุณารับที่เคาน์เตอร์ 🏪"
	CancelledText = "❌ คำสั่งซื้อของคุณถูกยกเลิก กรุณาติดต่อร้านค้า"

	notePlaceholder = "-"
)

func CreatedMessage(order *model.Order) line.Message {
	return line.TextMessage(fmt.Sprintf(
		"☕ ออเดอร์ของคุณถูกยืนยันแล้ว!\n\n📌 %s\n📝 %s\n\nกรุณารอประมาณ 5-10 นาที ⏳",
		order.Drink, noteText(order.Note),
	))
}

// StatusMessage selects the notification for status by exact match.
func StatusMessage(order *model.Order, status string) line.Message {
	switch model.ClassifyStatus(status) {
	case model.StatusKindDone:
		return line.TextMessage(ReadyText)
	case model.StatusKindReadyToServe:
		return orderCard(order, status)
	case model.StatusKindCancelled:
		return line.TextMessage(CancelledText)
	default:
		return line.TextMessage(fmt.Sprintf("📦 สถานะออเดอร์ของคุณ: %s", status))
	}
}

// ReplyText answers an inbound chat message. It keeps no state between calls.
func ReplyText(text string) string {
	if text == TriggerPhrase {
		return OrderPrompt
	}
	return EchoPrefix + text
}

func orderCard(order *model.Order, status string) line.Message {
	bubble := &line.Flex{
		Type: "bubble",
		Header: &line.Flex{
			Type:   "box",
			Layout: "vertical",
			Contents: []line.Flex{
				{Type: "text", Text: "🍹 เครื่องดื่มพร้อมเสิร์ฟ", Weight: "bold", Size: "lg", Color: "#1DB446"},
			},
		},
		Body: &line.Flex{
			Type:    "box",
			Layout:  "vertical",
			Spacing: "sm",
			Contents: []line.Flex{
				cardRow("ออเดอร์", order.ID),
				cardRow("ลูกค้า", order.Name),
				cardRow("เครื่องดื่ม", order.Drink),
				cardRow("หมายเหตุ", noteText(order.Note)),
				cardRow("สถานะ", status),
			},
		},
	}
	return line.FlexMessage(fmt.Sprintf("ออเดอร์ %s พร้อมเสิร์ฟ", order.Drink), bubble)
}

func cardRow(label, value string) line.Flex {
	return line.Flex{
		Type:   "box",
		Layout: "horizontal",
		Contents: []line.Flex{
			{Type: "text", Text: label, Size: "sm", Color: "#555555", Flex: 2},
			{Type: "text", Text: value, Size: "sm", Color: "#111111", Flex: 4, Wrap: true},
		},
	}
}

func noteText(note string) string {
	if note == "" {
		return notePlaceholder
	}
	return note
}
