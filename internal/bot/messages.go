package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sundarv/expense-bot/internal/extract"
)

// Menu commands. The bot accepts both the labeled button text and the
// bare words ("cancel", "total expense"), case-insensitively.
const (
	cmdPhoto  = "📸 Add by Bill Photo"
	cmdManual = "✏️ Add Manually"
	cmdTotal  = "💰 Total Expense"
	cmdCSV    = "📥 Download CSV"
	cmdExcel  = "📊 Download Excel"
	cmdReset  = "🗑️ Reset Data"
	cmdCancel = "🚫 Cancel"
)

// Card action identifiers carried in button values.
const (
	actionConfirmYes = "confirm_yes"
	actionConfirmNo  = "confirm_no"
	actionEditPrefix = "edit_"
	actionMenuPrefix = "menu_"
)

const (
	msgCancelled   = "🚫 Current process cancelled.\nBack to main menu."
	msgSendPhoto   = "📸 Send the bill photo clearly"
	msgProcessing  = "🧾 Bill received!\n⏳ Processing, please wait..."
	msgUnreadable  = "❌ Couldn't read bill clearly.\nTry another image or use manual entry."
	msgRetry       = "❌ Something went wrong.\nPlease try again."
	msgEnterAmount = "💵 Enter amount:"
	msgDateChoice  = "📅 Use current date or enter manually?\n• 📅 Use Current Date\n• ✏️ Enter Date Manually"
	msgEnterDate   = "✏️ Enter date (DD-MM-YYYY):"
	msgTimeChoice  = "🕐 Use current time or enter manually?\n• 🕐 Use Current Time\n• ✏️ Enter Time Manually"
	msgEnterTime   = "✏️ Enter time (HH:MM):"
	msgEnterPlace  = "📍 Enter place:"
	msgSaved       = "✅ Expense saved!"
	msgNoData      = "No data yet!"
	msgDataCleared = "🗑️ All data cleared!"
)

var manualCategories = []string{
	"🍔 Food", "🚕 Travel", "⛽ Fuel",
	"🛒 Groceries", "🛍️ Shopping", "🎬 Entertainment",
	"🏥 Medical", "💡 Utilities", "🎓 Education",
	"📱 Subscription", "🏨 Hotel", "🧾 Bills",
	"📦 Other",
}

func welcomeMessage(name string) string {
	if name == "" {
		name = "Friend"
	}
	return fmt.Sprintf("Hi %s, welcome to the expense tracker! 👋\n\n"+
		"📊 Track your expenses easily\n"+
		"📸 Upload bill photos to save time\n"+
		"✍️ Manual entry available anytime", name)
}

func categoryPrompt() string {
	var b strings.Builder
	b.WriteString("📁 Select category:\n")
	for _, c := range manualCategories {
		b.WriteString("• " + c + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func totalMessage(total float64) string {
	return "💰 Total: ₹" + strconv.FormatFloat(total, 'f', -1, 64)
}

func editPrompt(field string) string {
	return fmt.Sprintf("✏️ Enter correct %s:", field)
}

func recordSummary(rec extract.Record) string {
	return fmt.Sprintf("📅 Date: %s\n🕐 Time: %s\n📍 Place: %s\n📁 Category: %s\n💵 Amount: ₹%s",
		orDash(rec.Date), orDash(rec.Time), orDash(rec.Place), orDash(rec.Category), orDash(rec.Amount))
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

// mainMenuCard lists the available actions as buttons.
func mainMenuCard() map[string]interface{} {
	actions := []map[string]interface{}{
		button(cmdPhoto, actionMenuPrefix+"photo", "primary"),
		button(cmdManual, actionMenuPrefix+"manual", "primary"),
		button(cmdTotal, actionMenuPrefix+"total", "default"),
		button(cmdCSV, actionMenuPrefix+"csv", "default"),
		button(cmdExcel, actionMenuPrefix+"excel", "default"),
		button(cmdReset, actionMenuPrefix+"reset", "danger"),
		button(cmdCancel, actionMenuPrefix+"cancel", "default"),
	}
	return card("What would you like to do?", nil, actions)
}

// confirmCard shows the assembled record with accept/reject buttons.
func confirmCard(title string, rec extract.Record) map[string]interface{} {
	actions := []map[string]interface{}{
		button("✅ Yes", actionConfirmYes, "primary"),
		button("❌ No", actionConfirmNo, "danger"),
	}
	return card(title, []string{recordSummary(rec)}, actions)
}

// editMenuCard offers one button per editable field.
func editMenuCard() map[string]interface{} {
	actions := make([]map[string]interface{}, 0, len(extract.Fields))
	for _, f := range extract.Fields {
		actions = append(actions, button(titleWord(f), actionEditPrefix+f, "default"))
	}
	return card("❓ Which detail is wrong?", nil, actions)
}

func card(title string, body []string, actions []map[string]interface{}) map[string]interface{} {
	elements := make([]interface{}, 0, len(body)+1)
	for _, text := range body {
		elements = append(elements, map[string]interface{}{
			"tag":  "div",
			"text": map[string]interface{}{"tag": "lark_md", "content": text},
		})
	}
	if len(actions) > 0 {
		elements = append(elements, map[string]interface{}{
			"tag":     "action",
			"actions": actions,
		})
	}

	return map[string]interface{}{
		"config": map[string]interface{}{"wide_screen_mode": true},
		"header": map[string]interface{}{
			"title": map[string]interface{}{"tag": "plain_text", "content": title},
		},
		"elements": elements,
	}
}

func button(label, action, style string) map[string]interface{} {
	return map[string]interface{}{
		"tag":   "button",
		"text":  map[string]interface{}{"tag": "plain_text", "content": label},
		"type":  style,
		"value": map[string]interface{}{"action": action},
	}
}

func titleWord(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
