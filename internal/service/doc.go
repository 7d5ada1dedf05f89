// Package service 實作配對與房間生命週期的核心邏輯。
//
// 每條連線由一個 goroutine 從頭帶到尾：先經過 MatchService 配對
// （認領等待者、佔住等待位、或降級成 AI 對戰），附著到房間後
// 改由 RoomService 的會話迴圈依序處理協議訊息，直到斷線清理。
// 等待位與房間註冊表是僅有的兩份行程級共享狀態，
// 所有讀改寫都在各自的鎖內一步完成。
package service
