package relay

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrameJSON(t *testing.T) {
	f, err := ParseFrameJSON([]byte(`{"event":"identity-bind","data":{"userId":"alice"}}`))
	require.NoError(t, err)
	assert.Equal(t, EvtIdentityBind, f.Event)

	p, err := ExtractBindPayload(f)
	require.NoError(t, err)
	assert.Equal(t, "alice", p.UserID)
}

func TestParseFrameJSONBad(t *testing.T) {
	_, err := ParseFrameJSON([]byte(`not json`))
	assert.Error(t, err)

	// event 为空也是坏帧
	_, err = ParseFrameJSON([]byte(`{"data":{"userId":"alice"}}`))
	assert.Error(t, err)
}

func TestExtractSendPayload(t *testing.T) {
	f, err := ParseFrameJSON([]byte(`{"event":"message-send","data":{"senderId":"a","receiverId":"b","content":"hi"}}`))
	require.NoError(t, err)

	p, err := ExtractSendPayload(f)
	require.NoError(t, err)
	assert.Equal(t, "a", p.SenderID)
	assert.Equal(t, "b", p.ReceiverID)
	assert.Equal(t, "hi", p.Content)

	// data 缺失
	_, err = ExtractSendPayload(&InboundFrame{Event: EvtMessageSend})
	assert.Error(t, err)
}

func TestBuildActivitySnapshotWire(t *testing.T) {
	f := BuildActivitySnapshot([]ActivityEntry{
		{UserID: "alice", Activity: "Idle"},
		{UserID: "bob", Activity: "Playing X"},
	})

	// 线上格式是 [userId, activity] 的二元组数组
	raw, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"event":"activity-snapshot","data":[["alice","Idle"],["bob","Playing X"]]}`,
		string(raw))
}

func TestBuildOnlineSnapshotNeverNull(t *testing.T) {
	raw, err := json.Marshal(BuildOnlineSnapshot(nil))
	require.NoError(t, err)
	// 空名单序列化成 []，不能是 null
	assert.JSONEq(t, `{"event":"online-snapshot","data":[]}`, string(raw))
}

func TestBuildUserFrames(t *testing.T) {
	raw, _ := json.Marshal(BuildUserJoined("alice"))
	assert.JSONEq(t, `{"event":"user-joined","data":"alice"}`, string(raw))

	raw, _ = json.Marshal(BuildUserLeft("alice"))
	assert.JSONEq(t, `{"event":"user-left","data":"alice"}`, string(raw))

	raw, _ = json.Marshal(BuildActivityChanged("alice", "Idle"))
	assert.JSONEq(t, `{"event":"activity-changed","data":{"userId":"alice","activity":"Idle"}}`, string(raw))
}
