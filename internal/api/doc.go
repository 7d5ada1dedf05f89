// Package api 處理 HTTP 請求路由和處理。
//
// 配對與對戰協議都走 /ws 這一條持久的 WebSocket 連線，
// REST 介面只提供健康檢查與對戰紀錄查詢。
package api
