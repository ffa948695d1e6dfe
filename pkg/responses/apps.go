package responses

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Apps 调用响应类型
const (
	CallTypeOK    = "ok"
	CallTypeForm  = "form"
	CallTypeError = "error"
)

// CallResponse Mattermost Apps 调用响应
type CallResponse struct {
	Type string      `json:"type"`
	Text string      `json:"text,omitempty"`
	Data interface{} `json:"data,omitempty"`
	Form interface{} `json:"form,omitempty"`
}

// LookupData 动态下拉数据
type LookupData struct {
	Items interface{} `json:"items"`
}

// Ok 成功响应，Apps 协议要求始终返回 HTTP 200
func Ok(c *gin.Context, text string) {
	c.JSON(http.StatusOK, CallResponse{Type: CallTypeOK, Text: text})
}

// OkData 带数据的成功响应
func OkData(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, CallResponse{Type: CallTypeOK, Data: data})
}

// Form 表单响应
func Form(c *gin.Context, form interface{}) {
	c.JSON(http.StatusOK, CallResponse{Type: CallTypeForm, Form: form})
}

// Lookup 动态下拉响应，items 为空时返回空数组
func Lookup(c *gin.Context, items interface{}) {
	if items == nil {
		items = []struct{}{}
	}
	OkData(c, LookupData{Items: items})
}

// CallError 错误响应
func CallError(c *gin.Context, text string) {
	c.JSON(http.StatusOK, CallResponse{Type: CallTypeError, Text: text})
}
