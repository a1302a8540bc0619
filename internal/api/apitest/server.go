// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package apitest provides an in-memory Sofia backend for tests.
//
// The server implements the subset of the backend API the client uses,
// backed by maps, and records every credit call so tests can assert the
// client never credits a payment twice.
//
//	srv := apitest.NewServer("token")
//	defer srv.Close()
//	client := api.NewClient(srv.URL, api.NewTokenHolder("token"))
package apitest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// ReplyFunc computes the assistant reply for a user message.
type ReplyFunc func(chatID int64, message, model string, hasImage bool) (content string, errMsg string)

type chat struct {
	ID        int64  `json:"id"`
	Name      string `json:"chat_name"`
	CreatedAt string `json:"created_at"`
	messages  []message
}

type message struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

type project struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	ChatIDs   []int64 `json:"chat_ids"`
	Collapsed int     `json:"collapsed"`
}

type invoice struct {
	Tokens   int64
	Paid     bool
	Credited bool
}

type transaction struct {
	Type      string `json:"type"`
	Amount    int64  `json:"amount"`
	Model     string `json:"model,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Server is a fake backend. All exported methods are safe for concurrent use.
type Server struct {
	*httptest.Server

	token string

	mu           sync.Mutex
	nextID       int64
	chats        map[int64]*chat
	projects     map[int64]*project
	projectOrder []int64
	balance      int64
	invoices     map[string]*invoice
	credits      map[string]int
	transactions []transaction
	reply        ReplyFunc
	failCredit   bool
	models       []gin.H
}

// NewServer starts a fake backend that accepts token as the only valid
// bearer credential.
func NewServer(token string) *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{
		token:    token,
		nextID:   1,
		chats:    make(map[int64]*chat),
		projects: make(map[int64]*project),
		invoices: make(map[string]*invoice),
		credits:  make(map[string]int),
		reply: func(_ int64, msg, _ string, _ bool) (string, string) {
			return "echo: " + msg, ""
		},
		models: []gin.H{
			{"id": "gpt-5", "cost_per_1k_input": 1.25, "cost_per_1k_output": 10.0},
			{"id": "deepseek", "cost_per_1k_input": 0.3, "cost_per_1k_output": 1.2},
		},
	}

	r := gin.New()
	r.Use(gin.Recovery())
	apiGroup := r.Group("/api", s.auth)
	{
		apiGroup.GET("/chats", s.listChats)
		apiGroup.POST("/chats", s.createChat)
		apiGroup.GET("/chats/:id", s.getChat)
		apiGroup.PATCH("/chats/:id", s.renameChat)
		apiGroup.DELETE("/chats/:id", s.deleteChat)
		apiGroup.POST("/chats/:id/message", s.sendMessage)

		apiGroup.GET("/projects", s.listProjects)
		apiGroup.POST("/projects", s.createProject)
		apiGroup.PATCH("/projects/:id", s.updateProject)
		apiGroup.DELETE("/projects/:id", s.deleteProject)
		apiGroup.POST("/projects/:id/chats", s.addChat)
		apiGroup.DELETE("/projects/:id/chats/:chat", s.removeChat)

		apiGroup.GET("/user/balance", s.getBalance)
		apiGroup.GET("/models", s.listModels)
		apiGroup.POST("/tokens/purchase", s.purchase)
		apiGroup.GET("/tokens/check-payment/:hash", s.checkPayment)
		apiGroup.POST("/tokens/credit", s.credit)
		apiGroup.GET("/tokens/transactions", s.listTransactions)
	}

	s.Server = httptest.NewServer(r)
	return s
}

// =============================================================================
// TEST CONTROLS
// =============================================================================

// SetReply replaces the assistant reply function.
func (s *Server) SetReply(fn ReplyFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reply = fn
}

// SetBalance sets the user's token balance.
func (s *Server) SetBalance(b int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balance = b
}

// Balance returns the user's token balance.
func (s *Server) Balance() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance
}

// MarkPaid settles the invoice identified by hash.
func (s *Server) MarkPaid(hash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inv, ok := s.invoices[hash]; ok {
		inv.Paid = true
	}
}

// FailCredit makes credit calls fail with a 500 while set.
func (s *Server) FailCredit(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failCredit = fail
}

// CreditCalls returns how many credit requests arrived for hash.
func (s *Server) CreditCalls(hash string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credits[hash]
}

// ChatName returns the stored name of a chat.
func (s *Server) ChatName(id int64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chats[id]
	if !ok {
		return "", false
	}
	return c.Name, true
}

// ChatCount returns how many chats exist.
func (s *Server) ChatCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chats)
}

// =============================================================================
// HANDLERS
// =============================================================================

func (s *Server) auth(c *gin.Context) {
	if c.GetHeader("Authorization") != "Bearer "+s.token {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token inválido"})
		return
	}
	c.Next()
}

func (s *Server) id(c *gin.Context, param string) (int64, bool) {
	n, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id inválido"})
		return 0, false
	}
	return n, true
}

func (s *Server) listChats(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*chat, 0, len(s.chats))
	for _, ch := range s.chats {
		out = append(out, ch)
	}
	// Newest first, like ORDER BY created_at DESC.
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	c.JSON(http.StatusOK, out)
}

func (s *Server) createChat(c *gin.Context) {
	var body struct {
		Name string `json:"name"`
	}
	_ = c.ShouldBindJSON(&body)
	if body.Name == "" {
		body.Name = "Novo Chat"
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ch := &chat{ID: s.nextID, Name: body.Name, CreatedAt: time.Now().UTC().Format("2006-01-02 15:04:05")}
	s.chats[ch.ID] = ch
	s.nextID++
	c.JSON(http.StatusCreated, ch)
}

func (s *Server) getChat(c *gin.Context) {
	id, ok := s.id(c, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, exists := s.chats[id]
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Chat não encontrado"})
		return
	}
	msgs := append([]message{}, ch.messages...)
	c.JSON(http.StatusOK, gin.H{"chat": ch, "messages": msgs})
}

func (s *Server) renameChat(c *gin.Context) {
	id, ok := s.id(c, "id")
	if !ok {
		return
	}
	var body struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nome não pode ser vazio"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, exists := s.chats[id]
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Chat não encontrado"})
		return
	}
	ch.Name = body.Name
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) deleteChat(c *gin.Context) {
	id, ok := s.id(c, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.chats[id]; !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Chat não encontrado"})
		return
	}
	delete(s.chats, id)
	for _, p := range s.projects {
		p.ChatIDs = without(p.ChatIDs, id)
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) sendMessage(c *gin.Context) {
	id, ok := s.id(c, "id")
	if !ok {
		return
	}

	var text, modelID string
	hasImage := false
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		text = c.PostForm("message")
		modelID = c.PostForm("model")
		if _, err := c.FormFile("image"); err == nil {
			hasImage = true
		}
	} else {
		var body struct {
			Message string `json:"message"`
			Model   string `json:"model"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "corpo inválido"})
			return
		}
		text, modelID = body.Message, body.Model
	}

	s.mu.Lock()
	ch, exists := s.chats[id]
	reply := s.reply
	s.mu.Unlock()
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Chat não encontrado"})
		return
	}

	// The reply function may block; it runs outside the lock.
	content, errMsg := reply(id, text, modelID, hasImage)
	if errMsg != "" {
		c.JSON(http.StatusOK, gin.H{"error": errMsg})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC().Format("2006-01-02 15:04:05")
	ch.messages = append(ch.messages,
		message{Role: "user", Content: text, Timestamp: now},
		message{Role: "assistant", Content: content, Timestamp: now},
	)
	used := int64(len(text) + len(content))
	s.balance -= used
	s.transactions = append(s.transactions, transaction{Type: "usage", Amount: -used, Model: modelID, Timestamp: now})
	c.JSON(http.StatusOK, gin.H{"role": "assistant", "content": content, "tokens_used": used})
}

func (s *Server) listProjects(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]project, 0, len(s.projectOrder))
	for _, id := range s.projectOrder {
		p := *s.projects[id]
		p.ChatIDs = append([]int64{}, p.ChatIDs...)
		out = append(out, p)
	}
	c.JSON(http.StatusOK, gin.H{"projects": out})
}

func (s *Server) createProject(c *gin.Context) {
	var body struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nome do projeto é obrigatório"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &project{ID: s.nextID, Name: body.Name, ChatIDs: []int64{}}
	s.nextID++
	s.projects[p.ID] = p
	s.projectOrder = append(s.projectOrder, p.ID)
	c.JSON(http.StatusCreated, gin.H{"success": true, "project_id": p.ID})
}

func (s *Server) updateProject(c *gin.Context) {
	id, ok := s.id(c, "id")
	if !ok {
		return
	}
	var body struct {
		Name      *string `json:"name"`
		Collapsed *bool   `json:"collapsed"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || (body.Name == nil && body.Collapsed == nil) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nenhuma ação especificada"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, exists := s.projects[id]
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Projeto não encontrado"})
		return
	}
	if body.Name != nil {
		p.Name = *body.Name
	}
	if body.Collapsed != nil {
		p.Collapsed = 0
		if *body.Collapsed {
			p.Collapsed = 1
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) deleteProject(c *gin.Context) {
	id, ok := s.id(c, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.projects, id)
	s.projectOrder = without(s.projectOrder, id)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) addChat(c *gin.Context) {
	id, ok := s.id(c, "id")
	if !ok {
		return
	}
	var body struct {
		ChatID int64 `json:"chat_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.ChatID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "chat_id é obrigatório"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, exists := s.projects[id]
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Projeto não encontrado"})
		return
	}
	// Membership add only; other projects keep the chat.
	for _, cid := range p.ChatIDs {
		if cid == body.ChatID {
			c.JSON(http.StatusOK, gin.H{"success": true})
			return
		}
	}
	p.ChatIDs = append(p.ChatIDs, body.ChatID)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) removeChat(c *gin.Context) {
	id, ok := s.id(c, "id")
	if !ok {
		return
	}
	chatID, ok := s.id(c, "chat")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, exists := s.projects[id]; exists {
		p.ChatIDs = without(p.ChatIDs, chatID)
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) getBalance(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"balance": s.balance})
}

func (s *Server) listModels(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"models": s.models})
}

func (s *Server) purchase(c *gin.Context) {
	var body struct {
		Package string `json:"package"`
		Tokens  int64  `json:"tokens"`
		Sats    int64  `json:"sats"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Tokens <= 0 || body.Sats <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Pacote inválido"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	hash := fmt.Sprintf("hash-%d", s.nextID)
	s.nextID++
	s.invoices[hash] = &invoice{Tokens: body.Tokens}
	c.JSON(http.StatusOK, gin.H{
		"qr_code":         "lnbc" + strconv.FormatInt(body.Sats, 10) + "n1" + hash,
		"payment_hash":    hash,
		"payment_request": "lnbc" + strconv.FormatInt(body.Sats, 10) + "n1" + hash,
	})
}

func (s *Server) checkPayment(c *gin.Context) {
	hash := c.Param("hash")
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, exists := s.invoices[hash]
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Pagamento não encontrado"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"paid": inv.Paid})
}

func (s *Server) credit(c *gin.Context) {
	var body struct {
		PaymentHash string `json:"payment_hash"`
		Tokens      int64  `json:"tokens"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "corpo inválido"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credits[body.PaymentHash]++
	if s.failCredit {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro ao creditar tokens"})
		return
	}
	inv, exists := s.invoices[body.PaymentHash]
	if !exists || !inv.Paid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Pagamento não confirmado"})
		return
	}
	if !inv.Credited {
		inv.Credited = true
		s.balance += inv.Tokens
		s.transactions = append(s.transactions, transaction{
			Type: "purchase", Amount: inv.Tokens,
			Timestamp: time.Now().UTC().Format("2006-01-02 15:04:05"),
		})
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) listTransactions(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]transaction, 0, limit)
	for i := len(s.transactions) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.transactions[i])
	}
	c.JSON(http.StatusOK, gin.H{"transactions": out})
}

func without(ids []int64, id int64) []int64 {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
