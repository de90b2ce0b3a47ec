// Package discovery locates the MQTT broker on the local network over mDNS.
//
// It browses a DNS-SD service type (by default "_mqtt._tcp" in "local.") and
// turns the first answer into a broker URL for the paho client:
//
//	tcp://192.168.1.20:1883
//	ssl://[fd00::20]:8883
//
// IPv4 addresses are preferred, then IPv6, then the advertised host name.
//
// # Usage
//
//	d, err := discovery.New(cfg.Discovery)
//	if err != nil {
//	    return err
//	}
//	broker, err := d.Broker(ctx, cfg.Bus.TLS)
package discovery
