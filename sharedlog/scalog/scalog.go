package scalog

import (
	"encoding/json"
	"sync"

	"github.com/chn0318/scalog/client"
	"github.com/chn0318/scalog/pkg/address"
	"github.com/golang/glog"
	"github.com/spf13/viper"

	"github.com/chn0318/dashlog/sharedlog"
)

// ScalogSystem stores commits in a Scalog deployment through a pool of
// clients used round robin.
type ScalogSystem struct {
	clients []*client.Client

	mu   sync.Mutex
	next int
}

func NewScalogSystem() (*ScalogSystem, error) {
	numReplica := int32(viper.GetInt("data-replication-factor"))
	discPort := uint16(viper.GetInt("disc-port"))
	discIp := viper.GetString("disc-ip")
	discAddr := address.NewGeneralDiscAddr(discIp, discPort)
	dataPort := uint16(viper.GetInt("data-port"))
	dataAddr := address.NewGeneralDataAddr("data-%v-%v-ip", numReplica, dataPort)
	numClients := viper.GetInt("scalog-clients")
	if numClients <= 0 {
		numClients = 4
	}

	clients := make([]*client.Client, 0, numClients)
	for i := 0; i < numClients; i++ {
		c, err := client.NewClient(dataAddr, discAddr, numReplica)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	glog.Infof("[scalog] %d clients, disc %s:%d, replication %d\n", numClients, discIp, discPort, numReplica)

	return &ScalogSystem{
		clients: clients,
	}, nil
}

func (s *ScalogSystem) pickClient() *client.Client {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.clients[s.next]
	s.next = (s.next + 1) % len(s.clients)
	return c
}

func (s *ScalogSystem) AppendCommit(rec sharedlog.CommitRecord) (sharedlog.RecordRef, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return sharedlog.RecordRef{}, err
	}

	c := s.pickClient()

	gsn, sid, err := c.AppendOne(string(data))
	if err != nil {
		return sharedlog.RecordRef{}, err
	}

	return sharedlog.ShardedRef(uint32(sid), uint64(gsn)), nil
}

func (s *ScalogSystem) ReadCommit(ref sharedlog.RecordRef) (sharedlog.CommitRecord, error) {
	rid := int32(0)
	c := s.pickClient()

	data, err := c.Read(int64(ref.GSN), int32(ref.ShardID), rid)
	if err != nil {
		return sharedlog.CommitRecord{}, err
	}

	var rec sharedlog.CommitRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return sharedlog.CommitRecord{}, err
	}
	return rec, nil
}
