// Package streamclient is a websocket client for the engine's external
// streaming protocol: a fixed-layout binary packet format, each packet
// carried as one websocket binary message, for consumers (a browser
// viewport, a remote dedicated server) that want a live feed of a
// registered volume's chunks without linking against pkg/engine
// directly.
package streamclient

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
)

const (
	ServerPort = 20000
	ChunkSize  = 16
)

// VoxelType mirrors pkg/voxelbuf's ChannelType depth (16 bits) but
// travels on the wire as a single byte per voxel, matching the
// bandwidth budget of a streamed chunk payload.
type VoxelType uint16

// ClientBound packet IDs
const (
	PacketIDIdentification       uint8 = 0x00
	PacketIDAddEntity            uint8 = 0x01
	PacketIDRemoveEntity         uint8 = 0x02
	PacketIDUpdateEntityPosition uint8 = 0x03
	PacketIDSendChunk            uint8 = 0x04
	PacketIDSendMonoTypeChunk    uint8 = 0x05
	PacketIDChat                 uint8 = 0x06
	PacketIDUpdateEntityMetadata uint8 = 0x07
)

// ServerBound packet IDs
const (
	PacketIDUpdateEntity   uint8 = 0x00
	PacketIDUpdateVoxel    uint8 = 0x01
	PacketIDVoxelBulkEdit  uint8 = 0x02
	PacketIDChatMessage    uint8 = 0x03
	PacketIDClientMetadata uint8 = 0x04
)

// Client is one websocket connection to a streaming server speaking
// this package's packet protocol.
type Client struct {
	conn             *websocket.Conn
	entityID         uint32
	entityName       string
	renderDist       uint8
	OnEntityAdd      func(entityID uint32, x, y, z, yaw, pitch float32, name string)
	OnEntityRemove   func(entityID uint32)
	OnEntityUpdate   func(entityID uint32, x, y, z, yaw, pitch float32)
	OnChunkReceive   func(x, y, z int32, voxels []VoxelType)
	OnMonoChunk      func(x, y, z int32, voxelType VoxelType)
	OnChat           func(message string)
	OnEntityMetadata func(entityID uint32, name string)
}

// NewClient dials a websocket connection to the server at the given
// address. address may be a bare host[:port] (in which case it is
// turned into a ws:// URL against ServerPort) or a full ws(s):// URL.
func NewClient(address string) (*Client, error) {
	wsURL := address
	if !strings.Contains(wsURL, "://") {
		host := address
		if !strings.Contains(host, ":") {
			host = fmt.Sprintf("%s:%d", host, ServerPort)
		}
		wsURL = (&url.URL{Scheme: "ws", Host: host, Path: "/voxels"}).String()
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to server: %w", err)
	}

	return &Client{
		conn:       conn,
		renderDist: 8, // Default render distance
	}, nil
}

// Close closes the connection to the server
func (c *Client) Close() error {
	return c.conn.Close()
}

// SetEntityName sets the name of the client's entity
func (c *Client) SetEntityName(name string) {
	c.entityName = name
}

// SetRenderDistance sets the render distance for the client
func (c *Client) SetRenderDistance(distance uint8) {
	c.renderDist = distance
}

// SendClientMetadata sends the client metadata to the server
func (c *Client) SendClientMetadata() error {
	// Packet structure: id(U8) + renderDistance(U8) + name(U8[64])
	packet := make([]byte, 1+1+64)
	packet[0] = PacketIDClientMetadata
	packet[1] = c.renderDist

	// Copy name, truncating or padding with zeros as needed
	nameBytes := []byte(c.entityName)
	if len(nameBytes) > 64 {
		nameBytes = nameBytes[:64]
	}
	copy(packet[2:], nameBytes)

	return c.conn.WriteMessage(websocket.BinaryMessage, packet)
}

// SendUpdateEntity sends the client's entity position to the server
func (c *Client) SendUpdateEntity(x, y, z, yaw, pitch float32) error {
	// Packet structure: id(U8) + x(F32) + y(F32) + z(F32) + yaw(F32) + pitch(F32)
	packet := make([]byte, 1+4*5)
	packet[0] = PacketIDUpdateEntity

	binary.BigEndian.PutUint32(packet[1:], float32ToUint32(x))
	binary.BigEndian.PutUint32(packet[5:], float32ToUint32(y))
	binary.BigEndian.PutUint32(packet[9:], float32ToUint32(z))
	binary.BigEndian.PutUint32(packet[13:], float32ToUint32(yaw))
	binary.BigEndian.PutUint32(packet[17:], float32ToUint32(pitch))

	return c.conn.WriteMessage(websocket.BinaryMessage, packet)
}

// SendUpdateVoxel sends a single voxel edit to the server
func (c *Client) SendUpdateVoxel(voxelType VoxelType, x, y, z int32) error {
	// Packet structure: id(U8) + voxelType(U8) + x(I32) + y(I32) + z(I32)
	packet := make([]byte, 1+1+4*3)
	packet[0] = PacketIDUpdateVoxel
	packet[1] = uint8(voxelType)

	binary.BigEndian.PutUint32(packet[2:], uint32(x))
	binary.BigEndian.PutUint32(packet[6:], uint32(y))
	binary.BigEndian.PutUint32(packet[10:], uint32(z))

	return c.conn.WriteMessage(websocket.BinaryMessage, packet)
}

// SendVoxelBulkEdit sends multiple voxel edits to the server
func (c *Client) SendVoxelBulkEdit(updates []VoxelUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	// Packet structure: id(U8) + count(U32) + [voxelType(U8) + x(I32) + y(I32) + z(I32)...]
	packetSize := 1 + 4 + (1+4*3)*len(updates)
	packet := make([]byte, packetSize)

	packet[0] = PacketIDVoxelBulkEdit
	binary.BigEndian.PutUint32(packet[1:], uint32(len(updates)))

	offset := 5
	for _, update := range updates {
		packet[offset] = uint8(update.VoxelType)
		binary.BigEndian.PutUint32(packet[offset+1:], uint32(update.X))
		binary.BigEndian.PutUint32(packet[offset+5:], uint32(update.Y))
		binary.BigEndian.PutUint32(packet[offset+9:], uint32(update.Z))
		offset += 13
	}

	return c.conn.WriteMessage(websocket.BinaryMessage, packet)
}

// SendChat sends a chat message to the server
func (c *Client) SendChat(message string) error {
	// Packet structure: id(U8) + message(U8[4096])
	packet := make([]byte, 1+4096)
	packet[0] = PacketIDChatMessage

	msgBytes := []byte(message)
	if len(msgBytes) > 4096 {
		msgBytes = msgBytes[:4096]
	}
	copy(packet[1:], msgBytes)

	return c.conn.WriteMessage(websocket.BinaryMessage, packet)
}

// VoxelUpdate represents a single voxel edit
type VoxelUpdate struct {
	VoxelType VoxelType
	X, Y, Z   int32
}

// ProcessPackets reads and dispatches incoming packets from the server
// until the connection closes or a decode error occurs. Each websocket
// binary message is exactly one packet (id byte plus a fixed or
// length-prefixed payload).
func (c *Client) ProcessPackets() error {
	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return fmt.Errorf("connection closed by server")
			}
			return fmt.Errorf("failed to read packet: %w", err)
		}
		if msgType != websocket.BinaryMessage {
			continue
		}

		r := bytes.NewReader(data)
		var packetID uint8
		if err := binary.Read(r, binary.BigEndian, &packetID); err != nil {
			if err == io.EOF {
				continue
			}
			return fmt.Errorf("failed to read packet ID: %w", err)
		}

		switch packetID {
		case PacketIDIdentification:
			if err := c.handleIdentification(r); err != nil {
				return err
			}
		case PacketIDAddEntity:
			if err := c.handleAddEntity(r); err != nil {
				return err
			}
		case PacketIDRemoveEntity:
			if err := c.handleRemoveEntity(r); err != nil {
				return err
			}
		case PacketIDUpdateEntityPosition:
			if err := c.handleUpdateEntityPosition(r); err != nil {
				return err
			}
		case PacketIDSendChunk:
			if err := c.handleSendChunk(r); err != nil {
				return err
			}
		case PacketIDSendMonoTypeChunk:
			if err := c.handleSendMonoTypeChunk(r); err != nil {
				return err
			}
		case PacketIDChat:
			if err := c.handleChat(r); err != nil {
				return err
			}
		case PacketIDUpdateEntityMetadata:
			if err := c.handleUpdateEntityMetadata(r); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown packet ID: %d", packetID)
		}
	}
}

func (c *Client) handleIdentification(r io.Reader) error {
	var entityID uint32
	if err := binary.Read(r, binary.BigEndian, &entityID); err != nil {
		return fmt.Errorf("failed to read entity ID: %w", err)
	}

	c.entityID = entityID
	return nil
}

func (c *Client) handleAddEntity(r io.Reader) error {
	var entityID uint32
	var x, y, z, yaw, pitch float32

	if err := binary.Read(r, binary.BigEndian, &entityID); err != nil {
		return fmt.Errorf("failed to read entity ID: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &x); err != nil {
		return fmt.Errorf("failed to read x: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &y); err != nil {
		return fmt.Errorf("failed to read y: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &z); err != nil {
		return fmt.Errorf("failed to read z: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &yaw); err != nil {
		return fmt.Errorf("failed to read yaw: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &pitch); err != nil {
		return fmt.Errorf("failed to read pitch: %w", err)
	}

	nameBytes := make([]byte, 64)
	if _, err := io.ReadFull(r, nameBytes); err != nil {
		return fmt.Errorf("failed to read name: %w", err)
	}
	name := string(nameBytes)
	if idx := strings.IndexByte(name, 0); idx >= 0 {
		name = name[:idx]
	}

	if c.OnEntityAdd != nil {
		c.OnEntityAdd(entityID, x, y, z, yaw, pitch, name)
	}
	return nil
}

func (c *Client) handleRemoveEntity(r io.Reader) error {
	var entityID uint32
	if err := binary.Read(r, binary.BigEndian, &entityID); err != nil {
		return fmt.Errorf("failed to read entity ID: %w", err)
	}
	if c.OnEntityRemove != nil {
		c.OnEntityRemove(entityID)
	}
	return nil
}

func (c *Client) handleUpdateEntityPosition(r io.Reader) error {
	var entityID uint32
	var x, y, z, yaw, pitch float32

	if err := binary.Read(r, binary.BigEndian, &entityID); err != nil {
		return fmt.Errorf("failed to read entity ID: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &x); err != nil {
		return fmt.Errorf("failed to read x: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &y); err != nil {
		return fmt.Errorf("failed to read y: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &z); err != nil {
		return fmt.Errorf("failed to read z: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &yaw); err != nil {
		return fmt.Errorf("failed to read yaw: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &pitch); err != nil {
		return fmt.Errorf("failed to read pitch: %w", err)
	}

	if c.OnEntityUpdate != nil {
		c.OnEntityUpdate(entityID, x, y, z, yaw, pitch)
	}
	return nil
}

func (c *Client) handleSendChunk(r io.Reader) error {
	var x, y, z int32
	if err := binary.Read(r, binary.BigEndian, &x); err != nil {
		return fmt.Errorf("failed to read x: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &y); err != nil {
		return fmt.Errorf("failed to read y: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &z); err != nil {
		return fmt.Errorf("failed to read z: %w", err)
	}

	chunkDataSize := ChunkSize * ChunkSize * ChunkSize
	chunkData := make([]byte, chunkDataSize)
	if _, err := io.ReadFull(r, chunkData); err != nil {
		return fmt.Errorf("failed to read chunk data: %w", err)
	}

	voxels := make([]VoxelType, chunkDataSize)
	for i := range chunkDataSize {
		voxels[i] = VoxelType(chunkData[i])
	}

	if c.OnChunkReceive != nil {
		c.OnChunkReceive(x, y, z, voxels)
	}
	return nil
}

func (c *Client) handleSendMonoTypeChunk(r io.Reader) error {
	var x, y, z int32
	if err := binary.Read(r, binary.BigEndian, &x); err != nil {
		return fmt.Errorf("failed to read x: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &y); err != nil {
		return fmt.Errorf("failed to read y: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &z); err != nil {
		return fmt.Errorf("failed to read z: %w", err)
	}

	var voxelTypeByte uint8
	if err := binary.Read(r, binary.BigEndian, &voxelTypeByte); err != nil {
		return fmt.Errorf("failed to read voxel type: %w", err)
	}

	if c.OnMonoChunk != nil {
		c.OnMonoChunk(x, y, z, VoxelType(voxelTypeByte))
	}
	return nil
}

func (c *Client) handleChat(r io.Reader) error {
	messageBytes := make([]byte, 4096)
	if _, err := io.ReadFull(r, messageBytes); err != nil {
		return fmt.Errorf("failed to read message: %w", err)
	}
	message := string(messageBytes)
	if idx := strings.IndexByte(message, 0); idx >= 0 {
		message = message[:idx]
	}

	if c.OnChat != nil {
		c.OnChat(message)
	}
	return nil
}

func (c *Client) handleUpdateEntityMetadata(r io.Reader) error {
	var entityID uint32
	if err := binary.Read(r, binary.BigEndian, &entityID); err != nil {
		return fmt.Errorf("failed to read entity ID: %w", err)
	}

	nameBytes := make([]byte, 64)
	if _, err := io.ReadFull(r, nameBytes); err != nil {
		return fmt.Errorf("failed to read name: %w", err)
	}
	name := string(nameBytes)
	if idx := strings.IndexByte(name, 0); idx >= 0 {
		name = name[:idx]
	}

	if c.OnEntityMetadata != nil {
		c.OnEntityMetadata(entityID, name)
	}
	return nil
}

func float32ToUint32(f float32) uint32 {
	return math.Float32bits(f)
}
