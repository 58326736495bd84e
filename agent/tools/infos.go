package tools

import "github.com/cloudwego/eino/schema"

// Tool names. These are the wire names the agent invokes; changing one
// is a protocol change for every deployed prompt.
const (
	ToolGetMenu          = "get_menu"
	ToolSetOrModifyItems = "set_or_modify_items"
	ToolSetOrderType     = "set_order_type"
	ToolSetAddress       = "set_address"
	ToolSetTableBooking  = "set_table_booking"
	ToolSetPickUpBranch  = "set_pick_up_branch"
	ToolConfirmOrder     = "confirm_order"
	ToolCallBack         = "call_back"
	ToolTransferToHuman  = "transfer_to_human"
)

// Infos describes the full dispatch set for the agent runtime. The
// session id is injected by the gateway, so it is not part of any
// schema here; the agent cannot mis-address another call's order.
func Infos() []*schema.ToolInfo {
	return []*schema.ToolInfo{
		{
			Name: ToolGetMenu,
			Desc: "Get the restaurant's menu with categories and prices.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"restaurant_phone": {Type: schema.String, Desc: "Phone number of the restaurant", Required: false},
			}),
		},
		{
			Name: ToolSetOrModifyItems,
			Desc: "Set the complete current list of ordered items. Always send the full list, not just changes; existing items are updated in place.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"items": {
					Type:     schema.Array,
					Desc:     "Every item currently in the order",
					Required: true,
					ElemInfo: &schema.ParameterInfo{
						Type: schema.Object,
						SubParams: map[string]*schema.ParameterInfo{
							"name":     {Type: schema.String, Desc: "Menu item name", Required: true},
							"quantity": {Type: schema.Integer, Desc: "How many of the item", Required: true},
						},
					},
				},
				"modifications": {
					Type: schema.Array,
					Desc: "Special requests, each tied to one item by name",
					ElemInfo: &schema.ParameterInfo{
						Type: schema.Object,
						SubParams: map[string]*schema.ParameterInfo{
							"item_name": {Type: schema.String, Desc: "Which item the request applies to", Required: true},
							"details":   {Type: schema.String, Desc: "The request, e.g. 'no onions'", Required: true},
						},
					},
				},
			}),
		},
		{
			Name: ToolSetOrderType,
			Desc: "Set how the order reaches the customer.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"order_type": {
					Type:     schema.String,
					Desc:     "One of delivery, pickup, table_booking",
					Enum:     []string{"delivery", "pickup", "table_booking"},
					Required: true,
				},
			}),
		},
		{
			Name: ToolSetAddress,
			Desc: "Set the delivery address for a delivery order.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"address": {Type: schema.String, Desc: "Full delivery address", Required: true},
			}),
		},
		{
			Name: ToolSetTableBooking,
			Desc: "Book a table: party size and time.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"no_of_people": {Type: schema.Integer, Desc: "Party size", Required: true},
				"time":         {Type: schema.String, Desc: "Booking time as the customer said it", Required: true},
			}),
		},
		{
			Name: ToolSetPickUpBranch,
			Desc: "Set the pickup branch and time for a pickup order.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"branch": {Type: schema.String, Desc: "Branch name", Required: true},
				"time":   {Type: schema.String, Desc: "Pickup time as the customer said it", Required: true},
			}),
		},
		{
			Name: ToolConfirmOrder,
			Desc: "Confirm the order so the kitchen can start. Requires items and an order type to be set first.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
		},
		{
			Name: ToolCallBack,
			Desc: "Mark the order for a staff call-back instead of finishing it now.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
		},
		{
			Name: ToolTransferToHuman,
			Desc: "Hand the caller over to a human.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
		},
	}
}
