package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/golang/protobuf/proto"

	"github.com/robotalks/g4link/pkg/bridge/mqtt"
	"github.com/robotalks/g4link/pkg/env"
	"github.com/robotalks/g4link/pkg/g4/msgs"
	"github.com/robotalks/g4link/pkg/link"
)

var (
	showSamples bool
)

func init() {
	env.SetupFlags()
	flag.BoolVar(&showSamples, "samples", showSamples, "Print sample bits of messages.")
}

func decodeRequest(name string, payload []byte) (proto.Message, error) {
	var msg proto.Message
	switch name {
	case mqtt.TopicSet:
		msg = &msgs.Setting{}
	case mqtt.TopicCmd:
		msg = &msgs.Command{}
	case mqtt.TopicSettings:
		msg = &msgs.Settings{}
	default:
		return nil, nil
	}
	return msg, proto.Unmarshal(payload, msg)
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(env.Default().MQTTBrokerURL)
	if err != nil {
		log.Fatalln(err)
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	if err = q.Connect(ctx); err != nil {
		log.Fatalln(err)
	}
	defer q.Close()

	q.Sub("#", mqtt.Handler(func(topic string, payload []byte) {
		id, name, port, ok := mqtt.SplitTopic(topic)
		if !ok {
			log.Printf("%s: %d bytes", topic, len(payload))
			return
		}
		if name == mqtt.TopicMeta {
			log.Printf("%s: %s", topic, string(payload))
			return
		}
		if msg, err := decodeRequest(name, payload); msg != nil {
			if err != nil {
				log.Printf("%s: decode error: %v", topic, err)
				return
			}
			log.Printf("%s: %s", topic, msg)
			return
		}
		ev, err := mqtt.DecodeEvent(name, port, payload)
		if err != nil {
			log.Printf("%s: decode error: %v", topic, err)
			return
		}
		if port != "" {
			id += " " + port
		}
		switch e := ev.(type) {
		case *link.MessageEvent:
			if showSamples {
				var sb strings.Builder
				for _, bit := range e.Message.Samples() {
					sb.WriteByte(byte('0' + bit))
				}
				log.Printf("%s: [msg] %s", id, sb.String())
			} else {
				log.Printf("%s: [msg] %s", id, e.Message)
			}
		case *link.ErrorEvent:
			log.Printf("%s: [error] %v", id, e.Err)
		default:
			log.Printf("%s: [%s] %s", id, ev.EventType(), string(payload))
		}
	}))
	<-ctx.Done()
}
